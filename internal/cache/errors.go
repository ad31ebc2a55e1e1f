// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by KV implementations for absent keys.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned after the backend has been closed.
	ErrClosed = errors.New("cache backend closed")
)

// CacheError describes a failed cache operation. The store logs these and
// downgrades them to misses; they surface only from Clear and ClearAll.
type CacheError struct {
	Op     string
	Domain Domain
	Err    error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Domain, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
