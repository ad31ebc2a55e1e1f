// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package services adapts components with their own lifecycle to
// suture.Service: the HTTP server, the sync controllers, badger GC and
// the position watch.
//
// Components that already implement Serve(ctx) error, such as the
// websocket hub and the connectivity monitor, are added to the tree
// directly.
package services
