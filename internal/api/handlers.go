// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/wayfarer/internal/connectivity"
	"github.com/tomtom215/wayfarer/internal/models"
	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
	ws "github.com/tomtom215/wayfarer/internal/websocket"
)

// ReviewSubmitter sends reviews upstream. remote.DataAPI satisfies it.
type ReviewSubmitter interface {
	SubmitReview(ctx context.Context, review models.ReviewSubmission) error
}

// HandlerDeps are the collaborators of Handler. Monitor and Hub are
// optional.
type HandlerDeps struct {
	Listings *syncpkg.ListingsController
	Prices   *syncpkg.PricesController
	Route    *syncpkg.RouteController
	Reviews  ReviewSubmitter
	Monitor  *connectivity.Monitor
	Hub      *ws.Hub

	// ReviewTimeout bounds a background review submission. Default 30s.
	ReviewTimeout time.Duration
}

// Handler serves the API endpoints.
type Handler struct {
	listings *syncpkg.ListingsController
	prices   *syncpkg.PricesController
	route    *syncpkg.RouteController
	reviews  ReviewSubmitter
	monitor  *connectivity.Monitor
	wsHub    *ws.Hub

	runners       map[string]syncpkg.Runner
	reviewTimeout time.Duration
	startTime     time.Time

	// pending tracks background review submissions.
	pending sync.WaitGroup
}

// NewHandler creates a handler.
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		listings:      deps.Listings,
		prices:        deps.Prices,
		route:         deps.Route,
		reviews:       deps.Reviews,
		monitor:       deps.Monitor,
		wsHub:         deps.Hub,
		runners:       make(map[string]syncpkg.Runner, 3),
		reviewTimeout: deps.ReviewTimeout,
		startTime:     time.Now(),
	}
	if h.reviewTimeout <= 0 {
		h.reviewTimeout = 30 * time.Second
	}
	if h.listings != nil {
		h.runners[h.listings.Name()] = h.listings
	}
	if h.prices != nil {
		h.runners[h.prices.Name()] = h.prices
	}
	if h.route != nil {
		h.runners[h.route.Name()] = h.route
	}
	return h
}

// Wait blocks until background review submissions finish or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
