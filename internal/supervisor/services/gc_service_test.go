// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/cache"
)

type countingGC struct {
	runs atomic.Int32
	err  error
}

func (c *countingGC) RunGC() error {
	c.runs.Add(1)
	return c.err
}

var _ GarbageCollector = (*cache.BadgerKV)(nil)

func TestGCService_RunsOnInterval(t *testing.T) {
	t.Parallel()

	gc := &countingGC{err: errors.New("value log busy")}
	svc := NewGCService(gc, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for gc.runs.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("GC did not run twice; a failed run must not stop the loop")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestNewGCService_DefaultInterval(t *testing.T) {
	t.Parallel()

	svc := NewGCService(&countingGC{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v", svc.interval)
	}
	if svc.String() != "cache-gc" {
		t.Errorf("String() = %q", svc.String())
	}
}
