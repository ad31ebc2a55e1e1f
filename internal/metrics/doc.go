// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package metrics holds the Prometheus collectors for Wayfarer.

Collectors are package-level and registered with the default registry
through promauto. Components call the Record* helpers rather than
touching the vectors directly.

# Metrics Endpoint

Metrics are exposed at /metrics in the Prometheus text format:

	curl http://localhost:8686/metrics

# Available Metrics

Cache:
  - cache_hits_total{domain}, cache_misses_total{domain, reason}
  - cache_write_errors_total{domain}
  - cache_gc_runs_total{result}

Sync controllers:
  - sync_loads_total{domain, outcome}
  - sync_load_duration_seconds{domain}
  - sync_auto_retries_total{domain}
  - sync_phase{domain}

Retry and connectivity:
  - retry_attempts_total{policy, outcome}
  - connectivity_transitions_total{direction}
  - connectivity_connected

Remote APIs:
  - remote_requests_total{api, operation, status}, remote_request_duration_seconds{api, operation}
  - circuit_breaker_state{name}, circuit_breaker_requests_total{name, result}
  - circuit_breaker_consecutive_failures, circuit_breaker_state_transitions_total

HTTP and websocket:
  - api_requests_total{method, endpoint, status_code}, api_request_duration_seconds{method, endpoint}
  - websocket_connections_active
  - websocket_messages_sent_total{message_type}
*/
package metrics
