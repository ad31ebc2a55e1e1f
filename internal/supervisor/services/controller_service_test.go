// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
)

type fakeController struct {
	mu      sync.Mutex
	events  []string
	started chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{started: make(chan struct{}, 1)}
}

func (f *fakeController) record(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeController) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeController) Name() string { return "listings" }

func (f *fakeController) Start(context.Context) {
	f.record("start")
	f.started <- struct{}{}
}

func (f *fakeController) Stop() { f.record("stop") }

func (f *fakeController) Reload(context.Context) syncpkg.Snapshot {
	f.record("reload")
	return syncpkg.Snapshot{Domain: "listings", Phase: syncpkg.PhaseReady, Origin: syncpkg.OriginFresh}
}

func runUntilCanceled(t *testing.T, svc *ControllerService, fc *fakeController) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-fc.started
	// Give the initial load a moment.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestControllerService_LoadOnStart(t *testing.T) {
	t.Parallel()

	fc := newFakeController()
	svc := NewControllerService(fc, true)
	if svc.String() != "sync-listings" {
		t.Errorf("String() = %q", svc.String())
	}

	runUntilCanceled(t, svc, fc)

	got := fc.Events()
	want := []string{"start", "reload", "stop"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events = %v, want %v", got, want)
			break
		}
	}
}

func TestControllerService_NoInitialLoad(t *testing.T) {
	t.Parallel()

	fc := newFakeController()
	runUntilCanceled(t, NewControllerService(fc, false), fc)

	got := fc.Events()
	if len(got) != 2 || got[0] != "start" || got[1] != "stop" {
		t.Errorf("events = %v, want [start stop]", got)
	}
}
