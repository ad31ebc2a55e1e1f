// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/wayfarer/internal/api"
	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/connectivity"
	"github.com/tomtom215/wayfarer/internal/location"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/remote"
	"github.com/tomtom215/wayfarer/internal/retry"
	"github.com/tomtom215/wayfarer/internal/supervisor"
	"github.com/tomtom215/wayfarer/internal/supervisor/services"
	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
	ws "github.com/tomtom215/wayfarer/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("remote_url", cfg.Remote.URL).
		Str("routing_url", cfg.Routing.URL).
		Str("cache_backend", cfg.Cache.Backend).
		Msg("Starting Wayfarer with supervisor tree")

	// === CACHE ===

	kv, badgerKV, err := openKV(&cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cache")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close cache")
		}
	}()
	store := cache.NewStore(kv)

	// === REMOTE CLIENTS ===

	dataClient, err := remote.NewDataClient(&cfg.Remote)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create data client")
	}
	dataAPI := remote.NewBreakerDataClient(dataClient, &cfg.Remote)

	routingClient, err := remote.NewRoutingClient(&cfg.Routing)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create routing client")
	}

	// === CONNECTIVITY, LOCATION, CONTROLLERS ===

	monitor := connectivity.NewMonitor(connectivity.NewProbeSource(
		cfg.Connectivity.ProbeTargets,
		cfg.Connectivity.ProbeInterval,
		cfg.Connectivity.ProbeTimeout,
	))
	resolver := location.NewResolver(location.NewStaticProvider(&cfg.Location), store)

	deps := syncpkg.Deps{
		Store:   store,
		Monitor: monitor,
		Policy:  retry.PolicyFromConfig("remote", cfg.Retry),
	}
	listings := syncpkg.NewListingsController(dataAPI, deps)
	prices := syncpkg.NewPricesController(dataAPI, deps)
	route := syncpkg.NewRouteController(routingClient, resolver, deps)

	hub := ws.NewHub()
	wireBroadcasts(hub, monitor, listings, prices, route)

	// === HTTP ===

	handler := api.NewHandler(api.HandlerDeps{
		Listings: listings,
		Prices:   prices,
		Route:    route,
		Reviews:  dataAPI,
		Monitor:  monitor,
		Hub:      hub,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))

	// Data layer
	if badgerKV != nil {
		tree.AddDataService(services.NewGCService(badgerKV, cfg.Cache.GCInterval))
	}
	tree.AddDataService(services.NewPositionWatchService(resolver, func(pos models.Position) {
		hub.BroadcastJSON(ws.MessageTypePosition, pos)
	}))

	// Sync layer. The route has no destination until a client asks for one.
	tree.AddSyncService(monitor)
	tree.AddSyncService(services.NewControllerService(listings, true))
	tree.AddSyncService(services.NewControllerService(prices, true))
	tree.AddSyncService(services.NewControllerService(route, false))

	// API layer
	tree.AddAPIService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout).WithDrain(handler.Wait))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Wayfarer stopped")
}

// openKV opens the configured cache backend. The second result is non-nil
// only for badger, which needs periodic value-log GC.
func openKV(cfg *config.CacheConfig) (cache.KV, *cache.BadgerKV, error) {
	if cfg.Backend != "badger" {
		logging.Warn().Msg("Using in-memory cache, cached data will not survive a restart")
		return cache.NewMemoryKV(), nil, nil
	}

	bkv, err := cache.OpenBadger(cache.BadgerConfig{
		Path:           cfg.Path,
		SyncWrites:     cfg.SyncWrites,
		Compression:    cfg.Compression,
		GCDiscardRatio: cfg.GCDiscardRatio,
	})
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Str("path", cfg.Path).Msg("Badger cache opened")
	return bkv, bkv, nil
}

// wireBroadcasts pushes controller snapshots and connectivity edges to
// websocket clients.
func wireBroadcasts(hub *ws.Hub, monitor *connectivity.Monitor, runners ...syncpkg.Runner) {
	for _, r := range runners {
		r.OnSnapshot(func(s syncpkg.Snapshot) { hub.BroadcastSyncState(s) })
	}
	monitor.OnLost(func() { hub.BroadcastConnectivity(false) })
	monitor.OnRestored(func() { hub.BroadcastConnectivity(true) })
}
