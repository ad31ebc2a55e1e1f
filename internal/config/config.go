// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package config loads Wayfarer configuration from defaults, an optional
// YAML file and environment variables (see koanf.go for the layering).
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Remote       RemoteConfig       `koanf:"remote"`
	Routing      RoutingConfig      `koanf:"routing"`
	Cache        CacheConfig        `koanf:"cache"`
	Connectivity ConnectivityConfig `koanf:"connectivity"`
	Retry        RetryConfig        `koanf:"retry"`
	Location     LocationConfig     `koanf:"location"`
	Supervisor   SupervisorConfig   `koanf:"supervisor"`
	Security     SecurityConfig     `koanf:"security"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RemoteConfig holds settings for the facility/commodity data API
// (a PostgREST endpoint).
type RemoteConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// Client-side request rate limit. RateLimit <= 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// Circuit breaker settings.
	BreakerFailures    uint32        `koanf:"breaker_failures"`
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// RoutingConfig holds settings for the OSRM-compatible routing API.
type RoutingConfig struct {
	URL     string        `koanf:"url"`
	Profile string        `koanf:"profile"`
	Timeout time.Duration `koanf:"timeout"`
}

// CacheConfig selects and tunes the persistent key-value backend.
type CacheConfig struct {
	// Backend is "badger" (durable) or "memory".
	Backend     string `koanf:"backend"`
	Path        string `koanf:"path"`
	SyncWrites  bool   `koanf:"sync_writes"`
	Compression bool   `koanf:"compression"`

	// Value log garbage collection for the badger backend.
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// ConnectivityConfig configures the probe-based connectivity source.
// Each target is a host:port that is dialed over TCP; any successful dial
// means the device has a usable transport.
type ConnectivityConfig struct {
	ProbeTargets  []string      `koanf:"probe_targets"`
	ProbeInterval time.Duration `koanf:"probe_interval"`
	ProbeTimeout  time.Duration `koanf:"probe_timeout"`
}

// RetryConfig holds the retry policy applied to remote fetches.
type RetryConfig struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	InitialDelay   time.Duration `koanf:"initial_delay"`
	MaxDelay       time.Duration `koanf:"max_delay"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`
}

// LocationConfig configures the static device location provider used
// when no platform location service is attached.
type LocationConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`
	Accuracy  float64 `koanf:"accuracy"`
}

// SupervisorConfig tunes the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and inbound rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
