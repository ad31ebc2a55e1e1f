// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wayfarer/config.yaml",
	"/etc/wayfarer/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8686,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Remote: RemoteConfig{
			URL:                "http://localhost:54321",
			Timeout:            30 * time.Second,
			RateLimit:          5,
			RateBurst:          10,
			BreakerFailures:    5,
			BreakerMaxRequests: 3,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     2 * time.Minute,
		},
		Routing: RoutingConfig{
			URL:     "https://router.project-osrm.org",
			Profile: "driving",
			Timeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			Backend:        "badger",
			Path:           "/data/cache",
			SyncWrites:     true,
			Compression:    true,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Connectivity: ConnectivityConfig{
			ProbeTargets:  []string{"1.1.1.1:443", "8.8.8.8:443"},
			ProbeInterval: 5 * time.Second,
			ProbeTimeout:  2 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialDelay:   time.Second,
			MaxDelay:       10 * time.Second,
			AttemptTimeout: 10 * time.Second,
		},
		Location: LocationConfig{
			Enabled:  false,
			Accuracy: 50,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers, later layers winning:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (explicit mapping only)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they come
// from the environment.
var sliceConfigPaths = []string{
	"connectivity.probe_targets",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Anything not listed is ignored so unrelated variables never leak in.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"remote_url":                  "remote.url",
	"remote_api_key":              "remote.api_key",
	"remote_timeout":              "remote.timeout",
	"remote_rate_limit":           "remote.rate_limit",
	"remote_rate_burst":           "remote.rate_burst",
	"remote_breaker_failures":     "remote.breaker_failures",
	"remote_breaker_max_requests": "remote.breaker_max_requests",
	"remote_breaker_interval":     "remote.breaker_interval",
	"remote_breaker_timeout":      "remote.breaker_timeout",

	"routing_url":     "routing.url",
	"routing_profile": "routing.profile",
	"routing_timeout": "routing.timeout",

	"cache_backend":          "cache.backend",
	"cache_path":             "cache.path",
	"cache_sync_writes":      "cache.sync_writes",
	"cache_compression":      "cache.compression",
	"cache_gc_interval":      "cache.gc_interval",
	"cache_gc_discard_ratio": "cache.gc_discard_ratio",

	"connectivity_probe_targets":  "connectivity.probe_targets",
	"connectivity_probe_interval": "connectivity.probe_interval",
	"connectivity_probe_timeout":  "connectivity.probe_timeout",

	"retry_max_attempts":    "retry.max_attempts",
	"retry_initial_delay":   "retry.initial_delay",
	"retry_max_delay":       "retry.max_delay",
	"retry_attempt_timeout": "retry.attempt_timeout",

	"location_enabled":   "location.enabled",
	"location_latitude":  "location.latitude",
	"location_longitude": "location.longitude",
	"location_accuracy":  "location.accuracy",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a koanf path,
// returning "" for unmapped keys.
//
// Examples:
//   - REMOTE_URL -> remote.url
//   - RETRY_MAX_ATTEMPTS -> retry.max_attempts
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
