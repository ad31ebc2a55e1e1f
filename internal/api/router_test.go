// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/wayfarer/internal/config"
	ws "github.com/tomtom215/wayfarer/internal/websocket"
)

func TestChiMiddlewareConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := ChiMiddlewareConfigFrom(config.SecurityConfig{
		CORSOrigins:     []string{"https://app.example"},
		RateLimitReqs:   7,
		RateLimitWindow: time.Second,
	})
	if cfg.RateLimitRequests != 7 || cfg.RateLimitWindow != time.Second || cfg.RateLimitDisabled {
		t.Errorf("unexpected rate limit config %+v", cfg)
	}

	defaults := ChiMiddlewareConfigFrom(config.SecurityConfig{})
	if defaults.RateLimitRequests != 100 || defaults.RateLimitWindow != time.Minute {
		t.Errorf("zero values should keep defaults: %+v", defaults)
	}

	mw := NewChiMiddleware(cfg)
	if !mw.AllowsOrigin("https://app.example") || mw.AllowsOrigin("https://evil.example") {
		t.Error("AllowsOrigin does not follow the configured list")
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitRequests = 2
	mwCfg.RateLimitWindow = time.Minute
	env := newTestEnv(t, mwCfg)

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/api/v1/health", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if e := decodeEnvelope(t, rec); e.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("code = %s", e.Error.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	mwCfg.CORSAllowedOrigins = []string{"https://app.example"}
	env := newTestEnv(t, mwCfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/facilities", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestWebSocket(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	mwCfg.CORSAllowedOrigins = []string{"https://app.example"}
	h := NewHandler(HandlerDeps{Hub: hub})
	srv := httptest.NewServer(NewRouter(h, NewChiMiddleware(mwCfg)).SetupChi())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"

	t.Run("missing origin", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			t.Fatal("expected dial to fail")
		}
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusForbidden {
				t.Errorf("status = %d, want 403", resp.StatusCode)
			}
		}
	})

	t.Run("unauthorized origin", func(t *testing.T) {
		header := http.Header{"Origin": []string{"https://evil.example"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		if err == nil {
			t.Fatal("expected dial to fail")
		}
		if resp != nil {
			resp.Body.Close()
		}
	})

	t.Run("allowed origin receives broadcasts", func(t *testing.T) {
		header := http.Header{"Origin": []string{"https://app.example"}}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		if resp != nil && resp.Body != nil {
			defer resp.Body.Close()
		}
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()

		deadline := time.Now().Add(time.Second)
		for hub.GetClientCount() != 1 {
			if time.Now().After(deadline) {
				t.Fatal("client never registered")
			}
			time.Sleep(5 * time.Millisecond)
		}

		hub.BroadcastConnectivity(false)
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != ws.MessageTypeConnectivity {
			t.Errorf("Type = %q", msg.Type)
		}
	})
}

func TestWebSocket_NoHub(t *testing.T) {
	t.Parallel()

	h := NewHandler(HandlerDeps{})
	rec := httptest.NewRecorder()
	h.WebSocket(websocket.Upgrader{})(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
