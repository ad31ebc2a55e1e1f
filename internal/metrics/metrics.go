// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache store
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of fresh cache reads per domain",
		},
		[]string{"domain"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses per domain",
		},
		[]string{"domain", "reason"}, // reason: "absent", "expired", "corrupt"
	)

	CacheWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_write_errors_total",
			Help: "Total number of swallowed cache write failures",
		},
		[]string{"domain"},
	)

	CacheGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_gc_runs_total",
			Help: "Total number of value log GC passes",
		},
		[]string{"result"}, // "rewritten", "noop", "error"
	)

	// Sync controllers
	SyncLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_loads_total",
			Help: "Total number of controller loads by outcome",
		},
		[]string{"domain", "outcome"}, // outcome: "fresh", "cached", "failed", "canceled"
	)

	SyncLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_load_duration_seconds",
			Help:    "Duration of controller loads including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"domain"},
	)

	SyncAutoRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_auto_retries_total",
			Help: "Total number of loads triggered by connectivity restoration",
		},
		[]string{"domain"},
	)

	SyncPhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_phase",
			Help: "Current controller phase (0=idle, 1=loading, 2=ready, 3=failed)",
		},
		[]string{"domain"},
	)

	// Retry engine
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of attempts made by retry policies",
		},
		[]string{"policy", "outcome"}, // outcome: "success", "retryable", "fatal"
	)

	// Connectivity monitor
	ConnectivityTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectivity_transitions_total",
			Help: "Total number of connectivity edges",
		},
		[]string{"direction"}, // "lost", "restored"
	)

	ConnectivityConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connectivity_connected",
			Help: "1 when at least one transport is usable",
		},
	)

	// Remote API
	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_requests_total",
			Help: "Total number of outbound API requests",
		},
		[]string{"api", "operation", "status"},
	)

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_request_duration_seconds",
			Help:    "Duration of outbound API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"api", "operation"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"message_type"},
	)
)

// RecordCacheRead records the outcome of a cache Get.
// reason is ignored on hits.
func RecordCacheRead(domain string, hit bool, reason string) {
	if hit {
		CacheHits.WithLabelValues(domain).Inc()
		return
	}
	CacheMisses.WithLabelValues(domain, reason).Inc()
}

// RecordCacheWriteError records a swallowed cache write failure.
func RecordCacheWriteError(domain string) {
	CacheWriteErrors.WithLabelValues(domain).Inc()
}

// RecordSyncLoad records a finished controller load.
func RecordSyncLoad(domain, outcome string, duration time.Duration) {
	SyncLoads.WithLabelValues(domain, outcome).Inc()
	SyncLoadDuration.WithLabelValues(domain).Observe(duration.Seconds())
}

// RecordRetryAttempt records one attempt made under a retry policy.
func RecordRetryAttempt(policy, outcome string) {
	RetryAttempts.WithLabelValues(policy, outcome).Inc()
}

// RecordConnectivityTransition records a lost or restored edge and updates
// the connected gauge.
func RecordConnectivityTransition(connected bool) {
	if connected {
		ConnectivityTransitions.WithLabelValues("restored").Inc()
		ConnectivityConnected.Set(1)
		return
	}
	ConnectivityTransitions.WithLabelValues("lost").Inc()
	ConnectivityConnected.Set(0)
}

// RecordRemoteRequest records an outbound API call. status is the HTTP
// status code, or 0 for transport failures.
func RecordRemoteRequest(api, operation string, status int, duration time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	RemoteRequests.WithLabelValues(api, operation, label).Inc()
	RemoteRequestDuration.WithLabelValues(api, operation).Observe(duration.Seconds())
}

// RecordAPIRequest records an inbound API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
