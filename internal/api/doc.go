// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package api exposes the sync controllers over HTTP using the chi router.

Every endpoint answers with the same envelope:

	{"success": true,  "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "BAD_REQUEST", "message": "..."}, "meta": {...}}

Data endpoints return a sync state snapshot rather than failing when the
remote service is unreachable. A snapshot in phase "ready" with origin
"cached" carries the last stored data and an advisory for the user; only
a request that is itself malformed gets a non-2xx status.

Routes:

	GET  /api/v1/health
	GET  /api/v1/facilities
	GET  /api/v1/map?south=&west=&north=&east=&zoom=
	GET  /api/v1/commodities
	GET  /api/v1/route?lat=&lng=
	POST /api/v1/sync/{domain}
	POST /api/v1/facilities/{id}/reviews
	GET  /api/v1/ws
	GET  /metrics
*/
package api
