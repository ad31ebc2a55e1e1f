// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package remote

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// BreakerDataClient wraps a DataAPI with a circuit breaker. Only network
// failures count against the breaker; a DomainError proves the upstream is
// alive and answering.
//
// The breaker runs on wall-clock time, so tests drive it through request
// outcomes rather than a fake clock.
type BreakerDataClient struct {
	next DataAPI
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerDataClient wraps next using the breaker settings in cfg.
func NewBreakerDataClient(next DataAPI, cfg *config.RemoteConfig) *BreakerDataClient {
	name := "data-api"
	threshold := cfg.BreakerFailures
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().
					Str("breaker", name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("Opening circuit")
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: countsAsSuccess,
	})

	return &BreakerDataClient{next: next, cb: cb, name: name}
}

// countsAsSuccess reports whether err leaves the breaker untouched.
// Caller cancellation and definitive rejections say nothing about
// upstream health.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var (
		domainErr *DomainError
		verr      *validation.RequestValidationError
	)
	return errors.As(err, &domainErr) || errors.As(err, &verr)
}

// State returns the current breaker state.
func (b *BreakerDataClient) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerDataClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ListFacilities calls through the breaker.
func (b *BreakerDataClient) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	return castResult[[]models.Facility](b.execute(func() (any, error) {
		return b.next.ListFacilities(ctx)
	}))
}

// ListCommodities calls through the breaker.
func (b *BreakerDataClient) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	return castResult[[]models.Commodity](b.execute(func() (any, error) {
		return b.next.ListCommodities(ctx)
	}))
}

// SubmitReview calls through the breaker.
func (b *BreakerDataClient) SubmitReview(ctx context.Context, review models.ReviewSubmission) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.SubmitReview(ctx, review)
	})
	return err
}
