// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateRemote,
		c.validateRouting,
		c.validateCache,
		c.validateConnectivity,
		c.validateRetry,
		c.validateLocation,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if c.Remote.URL == "" {
		return fmt.Errorf("REMOTE_URL is required")
	}
	if err := validateHTTPURL(c.Remote.URL, "REMOTE_URL"); err != nil {
		return err
	}
	if c.Remote.RateLimit > 0 && c.Remote.RateBurst < 1 {
		return fmt.Errorf("REMOTE_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.Remote.BreakerFailures == 0 {
		return fmt.Errorf("REMOTE_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateRouting() error {
	if c.Routing.URL == "" {
		return fmt.Errorf("ROUTING_URL is required")
	}
	if err := validateHTTPURL(c.Routing.URL, "ROUTING_URL"); err != nil {
		return err
	}
	switch c.Routing.Profile {
	case "driving", "car", "walking", "foot", "cycling", "bike":
		return nil
	default:
		return fmt.Errorf("ROUTING_PROFILE must be one of driving, walking, cycling, got: %s", c.Routing.Profile)
	}
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "badger":
		if c.Cache.Path == "" {
			return fmt.Errorf("CACHE_PATH is required for the badger backend")
		}
	case "memory":
	default:
		return fmt.Errorf("CACHE_BACKEND must be badger or memory, got: %s", c.Cache.Backend)
	}
	if c.Cache.GCDiscardRatio <= 0 || c.Cache.GCDiscardRatio >= 1 {
		return fmt.Errorf("CACHE_GC_DISCARD_RATIO must be in (0, 1), got: %g", c.Cache.GCDiscardRatio)
	}
	return nil
}

func (c *Config) validateConnectivity() error {
	if len(c.Connectivity.ProbeTargets) == 0 {
		return fmt.Errorf("CONNECTIVITY_PROBE_TARGETS must list at least one host:port")
	}
	for _, target := range c.Connectivity.ProbeTargets {
		if _, _, err := net.SplitHostPort(target); err != nil {
			return fmt.Errorf("CONNECTIVITY_PROBE_TARGETS entry %q is not host:port: %w", target, err)
		}
	}
	if c.Connectivity.ProbeInterval <= 0 || c.Connectivity.ProbeTimeout <= 0 {
		return fmt.Errorf("connectivity probe interval and timeout must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got: %d", c.Retry.MaxAttempts)
	}
	if c.Retry.InitialDelay < 0 {
		return fmt.Errorf("RETRY_INITIAL_DELAY must not be negative")
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("RETRY_MAX_DELAY (%s) must be >= RETRY_INITIAL_DELAY (%s)",
			c.Retry.MaxDelay, c.Retry.InitialDelay)
	}
	return nil
}

func (c *Config) validateLocation() error {
	if !c.Location.Enabled {
		return nil
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("LOCATION_LATITUDE must be between -90 and 90, got: %g", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("LOCATION_LONGITUDE must be between -180 and 180, got: %g", c.Location.Longitude)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got: %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL is invalid: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
}

// validateHTTPURL checks that rawURL is an http(s) base URL with a host and
// no path or query. Clients append their own API paths.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}
