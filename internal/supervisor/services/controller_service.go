// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"

	"github.com/tomtom215/wayfarer/internal/logging"
	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
)

// Controller is the lifecycle a sync controller exposes. *sync.Controller
// and the domain controllers embedding it satisfy it.
type Controller interface {
	Name() string
	Start(ctx context.Context)
	Stop()
	Reload(ctx context.Context) syncpkg.Snapshot
}

// ControllerService runs one sync controller: it subscribes to
// connectivity, performs the initial load, and stops on cancellation.
type ControllerService struct {
	controller  Controller
	loadOnStart bool
}

// NewControllerService wraps c. When loadOnStart is false the controller
// only loads on demand or after connectivity is restored, which suits
// domains that need input first (a route needs a destination).
func NewControllerService(c Controller, loadOnStart bool) *ControllerService {
	return &ControllerService{controller: c, loadOnStart: loadOnStart}
}

// Serve implements suture.Service.
func (s *ControllerService) Serve(ctx context.Context) error {
	s.controller.Start(ctx)
	defer s.controller.Stop()

	if s.loadOnStart {
		snap := s.controller.Reload(ctx)
		logging.Info().
			Str("domain", snap.Domain).
			Str("phase", snap.Phase.String()).
			Str("origin", snap.Origin.String()).
			Msg("initial load finished")
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *ControllerService) String() string {
	return "sync-" + s.controller.Name()
}
