// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package main is the entry point for the Wayfarer server.

Wayfarer keeps facility listings, commodity prices and a driving route
available while the network comes and goes. Every successful fetch is
written to a local cache; when the remote is unreachable the last good
copy is served and flagged as offline. Connectivity is probed in the
background and a restored connection reloads whatever failed.

# Supervisor Tree

	RootSupervisor ("wayfarer")
	├── DataSupervisor ("data-layer")
	│   ├── cache-gc (badger backend only)
	│   └── position-watch
	├── SyncSupervisor ("sync-layer")
	│   ├── connectivity-monitor
	│   ├── sync-listings
	│   ├── sync-prices
	│   └── sync-route (no initial load)
	└── APISupervisor ("api-layer")
	    ├── websocket-hub
	    └── http-server

Initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file and environment variables
 2. Logging: zerolog, JSON or console
 3. Cache: BadgerDB or in-memory key-value store
 4. Remote clients: data API behind a circuit breaker, routing API
 5. Connectivity monitor, location resolver and sync controllers
 6. WebSocket hub and Chi router
 7. Supervisor tree, until SIGINT or SIGTERM

On shutdown the HTTP server stops accepting requests, waits for pending
review submissions, and the cache is closed after every service returns.
*/
package main
