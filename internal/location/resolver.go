// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package location

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
)

// Resolver returns the best available position: a live fix when the
// provider has one, otherwise the last saved fix if it is still fresh.
type Resolver struct {
	provider Provider
	store    *cache.Store
	log      zerolog.Logger
}

// NewResolver creates a resolver over provider, persisting fixes in store.
func NewResolver(provider Provider, store *cache.Store) *Resolver {
	return &Resolver{
		provider: provider,
		store:    store,
		log:      logging.WithComponent("location"),
	}
}

// Current returns a live fix and saves it, or a cached fix no older than
// the position TTL. With neither available the provider error is returned.
func (r *Resolver) Current(ctx context.Context) (models.Position, error) {
	pos, err := r.provider.Current(ctx)
	if err == nil {
		r.store.Put(cache.DomainPosition, pos)
		return pos, nil
	}
	if ctx.Err() != nil {
		return models.Position{}, ctx.Err()
	}

	var cached models.Position
	if r.store.Get(cache.DomainPosition, &cached) {
		r.log.Info().Err(err).Time("fix_time", cached.Timestamp).Msg("Using cached position")
		return cached, nil
	}

	switch {
	case errors.Is(err, ErrPermissionDenied):
		r.log.Warn().Msg("Location permission denied and no cached position")
	case errors.Is(err, ErrServiceDisabled):
		r.log.Debug().Msg("Location service disabled and no cached position")
	default:
		r.log.Warn().Err(err).Msg("Location unavailable")
	}
	return models.Position{}, err
}

// Watch forwards the provider stream, saving each fix.
func (r *Resolver) Watch(ctx context.Context) (<-chan models.Position, error) {
	in, err := r.provider.Watch(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan models.Position)
	go func() {
		defer close(out)
		for pos := range in {
			r.store.Put(cache.DomainPosition, pos)
			select {
			case out <- pos:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
