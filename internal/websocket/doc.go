// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package websocket pushes sync state, connectivity changes and position
fixes to connected clients.

The Hub owns the client set and runs as a supervised service. Every frame
is a Message envelope:

	{"type": "sync_state",   "data": {"domain": "listings", "phase": "ready", ...}}
	{"type": "connectivity", "data": {"connected": false, "timestamp": "..."}}
	{"type": "position",     "data": {"latitude": 52.52, "longitude": 13.40, ...}}
	{"type": "pong",         "data": null}

Clients may send {"type": "ping"} and receive a pong. Broadcasts never
block the caller: a full hub queue drops the message, and a client whose
own buffer is full is disconnected.
*/
package websocket
