// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
)

// GarbageCollector reclaims space in a storage backend. *cache.BadgerKV
// satisfies it.
type GarbageCollector interface {
	RunGC() error
}

// GCService runs garbage collection on a fixed interval. A failed run is
// logged and retried at the next tick rather than restarting the service.
type GCService struct {
	gc       GarbageCollector
	interval time.Duration
}

// NewGCService creates the service. interval <= 0 means 10 minutes.
func NewGCService(gc GarbageCollector, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{gc: gc, interval: interval}
}

// Serve implements suture.Service.
func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.gc.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("cache garbage collection failed")
			}
		}
	}
}

func (s *GCService) String() string {
	return "cache-gc"
}
