// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package location supplies the device position used as the route origin.
//
// A Provider yields one-shot fixes and a continuous stream. Permission and
// service failures are distinct sentinels so callers can tell "the user
// said no" from "location is switched off". The Resolver layers the
// position cache domain on top: every good fix is saved, and a provider
// failure falls back to a fix no older than one hour.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/models"
)

var (
	// ErrPermissionDenied means the user refused location access.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrServiceDisabled means location services are switched off.
	ErrServiceDisabled = errors.New("location service disabled")

	// ErrNoFix means the provider is working but has no position yet.
	ErrNoFix = errors.New("no location fix available")
)

// Provider yields device positions.
type Provider interface {
	// Current returns a one-shot fix.
	Current(ctx context.Context) (models.Position, error)

	// Watch streams fixes until ctx is done. The channel is closed on exit.
	Watch(ctx context.Context) (<-chan models.Position, error)
}

// StaticProvider serves a configured or externally pushed position. It
// stands in for a device GPS on a server and in tests.
type StaticProvider struct {
	mu       sync.RWMutex
	pos      models.Position
	hasFix   bool
	err      error
	watchers map[chan models.Position]struct{}
	now      func() time.Time
}

// NewStaticProvider builds a provider from cfg. A disabled config yields a
// provider that reports ErrServiceDisabled until Set is called.
func NewStaticProvider(cfg *config.LocationConfig) *StaticProvider {
	p := &StaticProvider{
		watchers: make(map[chan models.Position]struct{}),
		now:      time.Now,
	}
	if !cfg.Enabled {
		p.err = ErrServiceDisabled
		return p
	}
	p.pos = models.Position{
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
		Accuracy:  cfg.Accuracy,
	}
	p.hasFix = true
	return p
}

// Set records a new fix, clears any failure and notifies watchers.
// Watchers that are not keeping up miss intermediate fixes.
func (p *StaticProvider) Set(pos models.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pos.Timestamp.IsZero() {
		pos.Timestamp = p.now()
	}
	p.pos = pos
	p.hasFix = true
	p.err = nil
	for ch := range p.watchers {
		select {
		case ch <- pos:
		default:
		}
	}
}

// Fail makes subsequent Current calls return err.
func (p *StaticProvider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Current returns the latest fix.
func (p *StaticProvider) Current(ctx context.Context) (models.Position, error) {
	if err := ctx.Err(); err != nil {
		return models.Position{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil {
		return models.Position{}, p.err
	}
	if !p.hasFix {
		return models.Position{}, ErrNoFix
	}
	pos := p.pos
	if pos.Timestamp.IsZero() {
		pos.Timestamp = p.now()
	}
	return pos, nil
}

// Watch streams fixes passed to Set. The current fix, if any, is sent first.
func (p *StaticProvider) Watch(ctx context.Context) (<-chan models.Position, error) {
	p.mu.Lock()
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return nil, err
	}
	ch := make(chan models.Position, 1)
	if p.hasFix {
		pos := p.pos
		if pos.Timestamp.IsZero() {
			pos.Timestamp = p.now()
		}
		ch <- pos
	}
	p.watchers[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.watchers, ch)
		close(ch)
		p.mu.Unlock()
	}()
	return ch, nil
}
