// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"sort"
	"time"

	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	// Status is "ok" when connected and "offline" otherwise. The service
	// keeps serving cached data while offline, so both answer 200.
	Status           string            `json:"status"`
	Connected        bool              `json:"connected"`
	Controllers      []ControllerPhase `json:"controllers"`
	WebSocketClients int               `json:"websocket_clients"`
	UptimeSeconds    int64             `json:"uptime_seconds"`
}

// ControllerPhase summarizes one controller.
type ControllerPhase struct {
	Domain   string `json:"domain"`
	Phase    string `json:"phase"`
	Origin   string `json:"origin,omitempty"`
	HasCache bool   `json:"has_cache"`
}

// Health reports connectivity and the phase of each controller.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "ok",
		Connected:     true,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	if h.monitor != nil {
		status.Connected = h.monitor.Connected()
	}
	if !status.Connected {
		status.Status = "offline"
	}
	if h.wsHub != nil {
		status.WebSocketClients = h.wsHub.GetClientCount()
	}

	names := make([]string, 0, len(h.runners))
	for name := range h.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		snap := h.runners[name].Snapshot()
		cp := ControllerPhase{Domain: name, Phase: snap.Phase.String(), HasCache: snap.HasCache}
		if snap.Origin != syncpkg.OriginNone {
			cp.Origin = snap.Origin.String()
		}
		status.Controllers = append(status.Controllers, cp)
	}

	WriteSuccess(w, r, status)
}
