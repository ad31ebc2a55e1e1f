// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/connectivity"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/remote"
	"github.com/tomtom215/wayfarer/internal/retry"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sleepRecorder replaces retry waits and records the requested delays.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// fakeDataAPI serves scripted facility and commodity results.
type fakeDataAPI struct {
	mu          sync.Mutex
	facilities  []models.Facility
	commodities []models.Commodity
	err         error
	calls       int

	// gate, when set, blocks each fetch until closed; entered receives one
	// value per blocked fetch.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeDataAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeDataAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeDataAPI) begin(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	gate, entered, err := f.gate, f.entered, f.err
	f.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeDataAPI) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Facility(nil), f.facilities...), nil
}

func (f *fakeDataAPI) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	if err := f.begin(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Commodity(nil), f.commodities...), nil
}

func (f *fakeDataAPI) SubmitReview(context.Context, models.ReviewSubmission) error {
	return errors.New("not implemented")
}

func networkErr() error {
	return &remote.NetworkError{Op: "list_facilities", Err: errors.New("connection refused")}
}

type testEnv struct {
	clock   *testClock
	store   *cache.Store
	monitor *connectivity.Monitor
	sleeps  *sleepRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newTestClock()
	return &testEnv{
		clock:   clock,
		store:   cache.NewStore(cache.NewMemoryKV(), cache.WithClock(clock.Now)),
		monitor: connectivity.NewMonitor(connectivity.NewChannelSource()),
		sleeps:  &sleepRecorder{},
	}
}

func (e *testEnv) deps() Deps {
	p := retry.DefaultPolicy("")
	p.Sleep = e.sleeps.Sleep
	return Deps{Store: e.store, Monitor: e.monitor, Policy: p, Now: e.clock.Now}
}

func connectivityEvent(usable bool) connectivity.Event {
	return connectivity.Event{Transports: []connectivity.Transport{{Name: "wifi", Usable: usable}}}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func sampleFacilities() []models.Facility {
	return []models.Facility{
		{ID: "f1", Name: "Central", Latitude: 48.137, Longitude: 11.575},
		{ID: "f2", Name: "Airport", Latitude: 48.353, Longitude: 11.786},
	}
}
