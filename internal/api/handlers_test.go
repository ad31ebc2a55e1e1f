// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/geo"
	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	health := decodeData[HealthStatus](t, decodeEnvelope(t, rec))
	if health.Status != "ok" || !health.Connected {
		t.Errorf("unexpected health %+v", health)
	}
	var domains []string
	for _, c := range health.Controllers {
		domains = append(domains, c.Domain)
		if c.Phase != "idle" {
			t.Errorf("%s phase = %q, want idle", c.Domain, c.Phase)
		}
	}
	if strings.Join(domains, ",") != "listings,prices,route" {
		t.Errorf("controllers = %v", domains)
	}
}

func TestFacilities_ReadyAfterLoad(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.handler.listings.Load(context.Background())

	rec := env.do(t, http.MethodGet, "/api/v1/facilities", "")
	e := decodeEnvelope(t, rec)
	if rec.Code != http.StatusOK || !e.Success {
		t.Fatalf("status = %d success = %v", rec.Code, e.Success)
	}
	if e.Meta == nil || e.Meta.RequestID == "" {
		t.Error("meta.request_id should be set")
	}
	if rec.Header().Get("X-Request-ID") != e.Meta.RequestID {
		t.Error("meta.request_id should match the X-Request-ID header")
	}

	snap := decodeData[snapshotBody](t, e)
	if snap.Domain != syncpkg.NameListings || snap.Phase != "ready" || snap.Origin != "fresh" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if !strings.Contains(string(snap.Data), `"f1"`) {
		t.Errorf("data missing facility: %s", snap.Data)
	}
}

func TestSync_OfflineFallsBackToCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodPost, "/api/v1/sync/listings", ""); rec.Code != http.StatusOK {
		t.Fatalf("first sync status = %d", rec.Code)
	}

	env.data.setListErr(errOffline)
	rec := env.do(t, http.MethodPost, "/api/v1/sync/listings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("offline sync status = %d", rec.Code)
	}

	snap := decodeData[snapshotBody](t, decodeEnvelope(t, rec))
	if snap.Phase != "ready" || snap.Origin != "cached" || !snap.HasCache {
		t.Errorf("expected cached ready snapshot, got %+v", snap)
	}
	if snap.Advisory == "" || snap.Error == "" {
		t.Errorf("cached snapshot should carry advisory and error: %+v", snap)
	}
	if !strings.HasPrefix(snap.Message, "Offline: showing saved data.") {
		t.Errorf("Message = %q", snap.Message)
	}
}

func TestSync_FailedWithoutCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.data.setListErr(errOffline)

	rec := env.do(t, http.MethodPost, "/api/v1/sync/prices", "")
	snap := decodeData[snapshotBody](t, decodeEnvelope(t, rec))
	if snap.Phase != "failed" || snap.HasCache {
		t.Errorf("expected failed snapshot without cache, got %+v", snap)
	}
	if len(snap.Data) != 0 {
		t.Errorf("failed snapshot should carry no data: %s", snap.Data)
	}
}

func TestSync_UnknownDomain(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/sync/weather", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if e := decodeEnvelope(t, rec); e.Success || e.Error.Code != ErrCodeNotFound {
		t.Errorf("unexpected envelope %+v", e)
	}
}

func TestCommodities(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.handler.prices.Load(context.Background())

	snap := decodeData[snapshotBody](t, decodeEnvelope(t, env.do(t, http.MethodGet, "/api/v1/commodities", "")))
	if snap.Domain != syncpkg.NamePrices || !strings.Contains(string(snap.Data), "diesel") {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

type mapBody struct {
	Visible    int  `json:"visible"`
	Clustered  bool `json:"clustered"`
	Facilities []struct {
		ID string `json:"id"`
	} `json:"facilities"`
	State snapshotBody `json:"state"`
}

func TestMap(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.handler.listings.Load(context.Background())

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantErr  string
	}{
		{"missing bound", "south=0&west=0&north=20", http.StatusBadRequest, ErrCodeBadRequest},
		{"not a number", "south=x&west=0&north=20&east=30", http.StatusBadRequest, ErrCodeBadRequest},
		{"inverted", "south=20&west=0&north=0&east=30", http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad zoom", "south=0&west=0&north=20&east=30&zoom=high", http.StatusBadRequest, ErrCodeBadRequest},
		{"ok", "south=0&west=0&north=20&east=30&zoom=14", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodGet, "/api/v1/map?"+tt.query, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			e := decodeEnvelope(t, rec)
			if tt.wantErr != "" {
				if e.Error == nil || e.Error.Code != tt.wantErr {
					t.Errorf("error = %+v, want code %s", e.Error, tt.wantErr)
				}
				return
			}
			view := decodeData[mapBody](t, e)
			if view.Visible != 1 || len(view.Facilities) != 1 || view.Facilities[0].ID != "f1" {
				t.Errorf("unexpected view %+v", view)
			}
		})
	}
}

type routeBody struct {
	State    snapshotBody `json:"state"`
	Geometry []geo.Point  `json:"geometry"`
}

func TestRoute(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/route?lat=43.25&lng=-126.45", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeData[routeBody](t, decodeEnvelope(t, rec))
	if resp.State.Phase != "ready" || len(resp.Geometry) != 3 {
		t.Errorf("unexpected route response %+v", resp)
	}
	dest, ok := env.handler.route.Destination()
	if !ok || dest.Latitude != 43.25 || dest.Longitude != -126.45 {
		t.Errorf("destination = %+v, %v", dest, ok)
	}
}

func TestRoute_BadInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	tests := []struct {
		query   string
		wantErr string
	}{
		{"lng=10", ErrCodeBadRequest},
		{"lat=95&lng=10", ErrCodeValidationFailed},
		{"lat=10&lng=-181", ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, "/api/v1/route?"+tt.query, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.query, rec.Code)
			continue
		}
		if e := decodeEnvelope(t, rec); e.Error.Code != tt.wantErr {
			t.Errorf("%s: code = %s, want %s", tt.query, e.Error.Code, tt.wantErr)
		}
	}
}

func TestRoute_MalformedGeometry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.routing.geometry = "_p~iF~ps|U_"
	rec := env.do(t, http.MethodGet, "/api/v1/route?lat=1&lng=2", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if e := decodeEnvelope(t, rec); e.Error.Code != ErrCodeUpstreamInvalid {
		t.Errorf("code = %s", e.Error.Code)
	}
	if st := env.handler.route.State(); st.Phase != syncpkg.PhaseFailed {
		t.Errorf("route phase = %v, want failed", st.Phase)
	}
}

func TestRoute_UpstreamFailureReturnsState(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.routing.err = errOffline
	rec := env.do(t, http.MethodGet, "/api/v1/route?lat=1&lng=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"phase":"failed"`) {
		t.Errorf("expected failed state: %s", rec.Body.String())
	}
}

func TestSubmitReview(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/facilities/f1/reviews", `{"rating":4,"comment":"clean","author":"sam"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := env.handler.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	got := env.data.submitted()
	if len(got) != 1 {
		t.Fatalf("submitted %d reviews, want 1", len(got))
	}
	if got[0].FacilityID != "f1" || got[0].Rating != 4 || got[0].Author != "sam" {
		t.Errorf("unexpected submission %+v", got[0])
	}
}

func TestSubmitReview_Rejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	tests := []struct {
		name    string
		body    string
		wantErr string
		wantMsg string
	}{
		{"rating too high", `{"rating":9}`, ErrCodeValidationFailed, "rating must be at most 5"},
		{"missing rating", `{"comment":"hi"}`, ErrCodeValidationFailed, "rating is required"},
		{"unknown field", `{"rating":3,"stars":3}`, ErrCodeBadRequest, ""},
		{"not json", `rating=3`, ErrCodeBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(t, http.MethodPost, "/api/v1/facilities/f1/reviews", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			e := decodeEnvelope(t, rec)
			if e.Error.Code != tt.wantErr {
				t.Errorf("code = %s, want %s", e.Error.Code, tt.wantErr)
			}
			if tt.wantMsg != "" && e.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", e.Error.Message, tt.wantMsg)
			}
		})
	}

	if n := len(env.data.submitted()); n != 0 {
		t.Errorf("rejected reviews reached upstream: %d", n)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decodeEnvelope(t, rec); e.Success || e.Error.Code != ErrCodeNotFound {
		t.Errorf("unexpected envelope %+v", e)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/v1/health", "")
	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing api_requests_total")
	}
}
