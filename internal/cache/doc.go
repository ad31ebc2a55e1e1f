// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package cache implements the TTL cache store that backs offline reads.

Each data domain (listings, prices, position) owns exactly one record. A
record carries the serialized payload and the time it was written; its
freshness is judged against a TTL that is fixed per domain:

	listings  24h
	prices     6h
	position   1h

The store separates two questions that callers must not conflate:

  - Get answers "is there fresh data?" and misses once now-writtenAt >= ttl.
  - HasRecord answers "is there any data at all?" and stays true after expiry.

Sync controllers use Get on the happy path and HasRecord + Peek for the
stale fallback after a failed remote fetch.

Writes are best-effort. A serialization or storage failure on Put is wrapped
in a CacheError, logged and counted, and never returned: a broken cache must
not abort the primary data flow.

# Backends

Records are persisted through the KV interface:

  - BadgerKV stores records in BadgerDB with synchronous writes, so a record
    is either fully present or absent after a crash.
  - MemoryKV keeps records in a map, for tests and ephemeral deployments.

# Example

	kv, err := cache.OpenBadger(cache.BadgerConfig{Path: "/data/cache", SyncWrites: true})
	if err != nil {
	    return err
	}
	store := cache.NewStore(kv)

	store.Put(cache.DomainListings, facilities)

	var cached []models.Facility
	if store.Get(cache.DomainListings, &cached) {
	    // fresh
	}
*/
package cache
