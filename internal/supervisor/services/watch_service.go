// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"errors"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
)

var errWatchClosed = errors.New("position watch closed")

// PositionWatcher streams position fixes. *location.Resolver satisfies
// it and saves every fix it forwards.
type PositionWatcher interface {
	Watch(ctx context.Context) (<-chan models.Position, error)
}

// PositionWatchService keeps a position watch open so the latest fix is
// always persisted, and hands each fix to onFix when set.
type PositionWatchService struct {
	watcher PositionWatcher
	onFix   func(models.Position)
}

// NewPositionWatchService creates the service. onFix may be nil.
func NewPositionWatchService(w PositionWatcher, onFix func(models.Position)) *PositionWatchService {
	return &PositionWatchService{watcher: w, onFix: onFix}
}

// Serve implements suture.Service. A watch that ends before ctx is done is
// reported as an error so the supervisor reopens it.
func (s *PositionWatchService) Serve(ctx context.Context) error {
	fixes, err := s.watcher.Watch(ctx)
	if err != nil {
		return err
	}
	for pos := range fixes {
		logging.Debug().
			Float64("latitude", pos.Latitude).
			Float64("longitude", pos.Longitude).
			Msg("position fix")
		if s.onFix != nil {
			s.onFix(pos)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errWatchClosed
}

func (s *PositionWatchService) String() string {
	return "position-watch"
}
