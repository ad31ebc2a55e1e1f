// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrResponseTooLarge is returned when a successful response body exceeds
// the client's size cap. It is not retried.
var ErrResponseTooLarge = errors.New("response too large")

// NetworkError is a transient failure: the request never got a usable
// answer (transport failure, timeout, or a gateway/overload status).
// The retry engine retries it.
type NetworkError struct {
	Op      string
	Status  int // 0 when no response was received
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: network error (HTTP %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable marks NetworkError for retry.DefaultClassifier.
func (e *NetworkError) Retryable() bool { return true }

// DomainError is a definitive rejection by the data API. PostgREST error
// bodies populate Code, Message, Details and Hint.
type DomainError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *DomainError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: HTTP %d [%s]: %s", e.Op, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, msg)
}

// RoutingError is a routing engine answer without a usable route, such as
// NoRoute or NoSegment.
type RoutingError struct {
	Status  int
	Code    string
	Message string
}

func (e *RoutingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("routing: %s", e.Code)
	}
	return fmt.Sprintf("routing: %s: %s", e.Code, e.Message)
}

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// transientStatus reports statuses that indicate an overloaded or
// unreachable upstream rather than a rejected request.
func transientStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
