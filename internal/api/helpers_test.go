// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/remote"
	"github.com/tomtom215/wayfarer/internal/retry"
	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
)

//nolint:gochecknoinits // quiet logs for the whole package
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

// referencePolyline decodes to three points.
const referencePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var errOffline = &remote.NetworkError{Op: "list", Err: errors.New("network unreachable")}

type fakeData struct {
	mu         sync.Mutex
	facilities []models.Facility
	listErr    error
	reviewErr  error
	reviews    []models.ReviewSubmission
}

func (f *fakeData) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeData) ListFacilities(context.Context) ([]models.Facility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.facilities, nil
}

func (f *fakeData) ListCommodities(context.Context) ([]models.Commodity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []models.Commodity{{ID: "c1", Code: "diesel"}}, nil
}

func (f *fakeData) SubmitReview(_ context.Context, review models.ReviewSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, review)
	return f.reviewErr
}

func (f *fakeData) submitted() []models.ReviewSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ReviewSubmission(nil), f.reviews...)
}

type fakeRouting struct {
	geometry string
	err      error
}

func (f *fakeRouting) Route(_ context.Context, origin, dest models.Position) (models.Route, error) {
	if f.err != nil {
		return models.Route{}, f.err
	}
	return models.Route{
		Origin:          origin,
		Destination:     dest,
		DistanceMeters:  1200,
		DurationSeconds: 180,
		EncodedGeometry: f.geometry,
	}, nil
}

type fixedOrigin struct{}

func (fixedOrigin) Current(context.Context) (models.Position, error) {
	return models.Position{Latitude: 38.5, Longitude: -120.2}, nil
}

type testEnv struct {
	data    *fakeData
	routing *fakeRouting
	handler *Handler
	server  http.Handler
}

func newTestEnv(t *testing.T, mwCfg *ChiMiddlewareConfig) *testEnv {
	t.Helper()

	data := &fakeData{facilities: []models.Facility{
		{ID: "f1", Name: "North", Latitude: 10.1, Longitude: 20.1},
		{ID: "f2", Name: "South", Latitude: -10, Longitude: 20},
	}}
	routing := &fakeRouting{geometry: referencePolyline}

	deps := syncpkg.Deps{
		Store: cache.NewStore(cache.NewMemoryKV()),
		Policy: retry.Policy{
			MaxAttempts: 1,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		},
	}

	h := NewHandler(HandlerDeps{
		Listings: syncpkg.NewListingsController(data, deps),
		Prices:   syncpkg.NewPricesController(data, deps),
		Route:    syncpkg.NewRouteController(routing, fixedOrigin{}, deps),
		Reviews:  data,
	})

	if mwCfg == nil {
		mwCfg = DefaultChiMiddlewareConfig()
		mwCfg.RateLimitDisabled = true
	}
	return &testEnv{
		data:    data,
		routing: routing,
		handler: h,
		server:  NewRouter(h, NewChiMiddleware(mwCfg)).SetupChi(),
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

// snapshotBody mirrors the JSON of a sync snapshot.
type snapshotBody struct {
	Domain   string          `json:"domain"`
	Phase    string          `json:"phase"`
	Origin   string          `json:"origin"`
	Advisory string          `json:"advisory"`
	Error    string          `json:"error"`
	HasCache bool            `json:"has_cache"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v\ndata: %s", err, env.Data)
	}
	return out
}
