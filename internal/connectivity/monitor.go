// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package connectivity turns a stream of raw connectivity reports into
// edge-triggered "lost" and "restored" notifications.
//
// The monitor remembers a single bit, wasConnected, which starts out true.
// For every report it computes whether any transport is usable and fires
// callbacks only when that value flips:
//
//	true  -> false   OnLost callbacks
//	false -> true    OnRestored callbacks
//	same  -> same    nothing
//
// Flapping is not debounced; every flip fires.
package connectivity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Direction identifies the edge a callback is registered for.
type Direction int

const (
	Restored Direction = iota
	Lost
)

func (d Direction) String() string {
	if d == Restored {
		return "restored"
	}
	return "lost"
}

type listener struct {
	id  uint64
	dir Direction
	fn  func()
}

// Monitor tracks connectivity edges for one Source.
type Monitor struct {
	source Source
	log    zerolog.Logger

	mu           sync.Mutex
	wasConnected bool
	listeners    []listener
	nextID       uint64
}

// NewMonitor creates a monitor over source. wasConnected starts true.
func NewMonitor(source Source) *Monitor {
	return &Monitor{
		source:       source,
		log:          logging.WithComponent("connectivity"),
		wasConnected: true,
	}
}

// Subscription is a registered callback. Close removes it.
type Subscription struct {
	m    *Monitor
	id   uint64
	once sync.Once
}

// Close unregisters the callback. Safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.m.remove(s.id)
	})
}

// OnRestored registers fn for false->true transitions. Registering the same
// function twice yields two independent subscriptions.
func (m *Monitor) OnRestored(fn func()) *Subscription {
	return m.add(Restored, fn)
}

// OnLost registers fn for true->false transitions.
func (m *Monitor) OnLost(fn func()) *Subscription {
	return m.add(Lost, fn)
}

func (m *Monitor) add(dir Direction, fn func()) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.listeners = append(m.listeners, listener{id: m.nextID, dir: dir, fn: fn})
	return &Subscription{m: m, id: m.nextID}
}

func (m *Monitor) remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Observe processes one raw event. Callbacks for a detected edge run
// synchronously in registration order, outside the monitor's lock.
func (m *Monitor) Observe(ev Event) {
	now := ev.Connected()

	m.mu.Lock()
	if now == m.wasConnected {
		m.mu.Unlock()
		return
	}
	m.wasConnected = now
	dir := Lost
	if now {
		dir = Restored
	}
	var fire []func()
	for _, l := range m.listeners {
		if l.dir == dir {
			fire = append(fire, l.fn)
		}
	}
	m.mu.Unlock()

	metrics.RecordConnectivityTransition(now)
	m.log.Info().
		Str("edge", dir.String()).
		Int("transports", len(ev.Transports)).
		Int("callbacks", len(fire)).
		Msg("Connectivity changed")

	for _, fn := range fire {
		fn()
	}
}

// Connected returns the last observed state.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wasConnected
}

// IsConnectedNow takes a one-shot reading from the source without
// affecting edge detection.
func (m *Monitor) IsConnectedNow(ctx context.Context) (bool, error) {
	ev, err := m.source.Check(ctx)
	if err != nil {
		return false, err
	}
	return ev.Connected(), nil
}

// Run subscribes to the source once and feeds every event through Observe
// until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	events, err := m.source.Events(ctx)
	if err != nil {
		return err
	}
	m.log.Info().Msg("Connectivity monitor started")

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.log.Warn().Msg("Connectivity source closed")
				return nil
			}
			m.Observe(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Serve implements suture.Service. A source that ends on its own is not
// restarted.
func (m *Monitor) Serve(ctx context.Context) error {
	if err := m.Run(ctx); err != nil {
		return err
	}
	return suture.ErrDoNotRestart
}

func (m *Monitor) String() string {
	return "connectivity-monitor"
}
