// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/wayfarer/internal/logging"
	ws "github.com/tomtom215/wayfarer/internal/websocket"
)

// newUpgrader builds the websocket upgrader. Browsers always send Origin,
// so a missing header is rejected along with any origin outside allowed.
func newUpgrader(allowed func(origin string) bool) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				logging.Warn().Msg("websocket connection rejected: missing Origin header")
				return false
			}
			if !allowed(origin) {
				logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
				return false
			}
			return true
		},
	}
}

// WebSocket upgrades the connection and attaches it to the hub.
func (h *Handler) WebSocket(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.wsHub == nil {
			WriteError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "websocket hub not available")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := ws.NewClient(h.wsHub, conn)
		select {
		case h.wsHub.Register <- client:
			client.Start()
		case <-r.Context().Done():
			_ = conn.Close()
		}
	}
}
