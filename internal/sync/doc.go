// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package sync keeps each remote data domain available while the network
comes and goes.

A Controller owns one domain and moves through four phases:

	Idle --Load--> Loading
	Loading --success--> Ready{Fresh}             (cache written first)
	Loading --failure, record present--> Ready{Cached, advisory}
	Loading --failure, no record--> Failed{err}
	Failed | Ready{Cached} --"restored" edge--> Loading

Every load runs the remote fetch through the retry engine. A success is
written to the TTL cache store before the Ready state is published. A
failure falls back to whatever the store holds for the domain, however old,
and attaches an advisory naming the data's age and the error.

Key Components:

  - Controller[T]: the generic state machine with single-flight Load
  - ListingsController: facility listings, plus MapView for the map screen
  - PricesController: priced commodity types
  - RouteController: uncached route from the device position to a
    destination, with decoded Geometry
  - Runner, Snapshot: the type-erased surface used by the API, the
    websocket broadcaster and the supervisor

Automatic Recovery:

Start subscribes to the connectivity monitor. On a "restored" edge, a
controller whose last remote attempt failed and that is not already loading
starts a background Load. Stop releases the subscription and waits for
those loads.

Usage Example:

	deps := sync.Deps{Store: store, Monitor: monitor, Policy: retry.DefaultPolicy("listings")}
	listings := sync.NewListingsController(dataClient, deps)
	listings.Start(ctx)
	defer listings.Stop()

	st := listings.Load(ctx)
	if st.Stale() {
	    fmt.Println(st.Message())
	}
*/
package sync
