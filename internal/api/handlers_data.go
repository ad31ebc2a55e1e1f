// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/geo"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	syncpkg "github.com/tomtom215/wayfarer/internal/sync"
	"github.com/tomtom215/wayfarer/internal/validation"
)

const (
	defaultMapZoom = 12
	maxReviewBody  = 16 << 10
)

// Facilities returns the listings snapshot.
func (h *Handler) Facilities(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.listings.Snapshot())
}

// Commodities returns the prices snapshot.
func (h *Handler) Commodities(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.prices.Snapshot())
}

// Map returns the facilities inside a viewport, clustered at low zoom.
func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	v, err := parseFloats(r, "south", "west", "north", "east")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	zoom, err := parseFloatQueryDefault(r, "zoom", defaultMapZoom)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	bounds := geo.Bounds{South: v[0], West: v[1], North: v[2], East: v[3]}
	if verr := validation.ValidateStruct(&bounds); verr != nil {
		writeValidationError(w, r, verr)
		return
	}

	rw.Success(h.listings.MapView(bounds, zoom))
}

// RouteResponse is the body of GET /route.
type RouteResponse struct {
	State    syncpkg.Snapshot `json:"state"`
	Geometry []geo.Point      `json:"geometry,omitempty"`
}

// Route sets the destination, loads a route from the current position and
// returns it with decoded geometry.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	v, err := parseFloats(r, "lat", "lng")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	dest := models.Position{Latitude: v[0], Longitude: v[1], Timestamp: time.Now().UTC()}
	if verr := validation.ValidateStruct(&dest); verr != nil {
		writeValidationError(w, r, verr)
		return
	}

	h.route.SetDestination(dest)
	st := h.route.Load(r.Context())
	if errors.Is(st.Err, syncpkg.ErrInvalidGeometry) {
		logging.Ctx(r.Context()).Warn().Err(st.Err).Msg("route geometry could not be decoded")
		rw.Error(http.StatusBadGateway, ErrCodeUpstreamInvalid, "route geometry is malformed")
		return
	}

	resp := RouteResponse{State: h.route.Snapshot()}
	// Without a Ready route there is no geometry; the state explains why.
	if geometry, err := h.route.Geometry(); err == nil {
		resp.Geometry = geometry
	}
	rw.Success(resp)
}

// Sync reloads one domain on demand and returns the resulting snapshot.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	runner, ok := h.runners[domain]
	if !ok {
		NewResponseWriter(w, r).NotFound("unknown domain: " + sanitizeLogValue(domain))
		return
	}
	WriteSuccess(w, r, runner.Reload(r.Context()))
}

// reviewBody is the JSON accepted by SubmitReview. The facility comes from
// the path.
type reviewBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
	Author  string `json:"author,omitempty"`
}

// ReviewAccepted is the body of a 202 from SubmitReview.
type ReviewAccepted struct {
	FacilityID string `json:"facility_id"`
	Status     string `json:"status"`
}

// SubmitReview validates a review and sends it upstream in the
// background. The reply does not wait for the upstream call, and a failed
// submission is logged, not retried.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body reviewBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReviewBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}

	submission := models.ReviewSubmission{
		FacilityID: chi.URLParam(r, "id"),
		Rating:     body.Rating,
		Comment:    body.Comment,
		Author:     body.Author,
	}
	if verr := validation.ValidateStruct(&submission); verr != nil {
		writeValidationError(w, r, verr)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.reviewTimeout)
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		defer cancel()
		logger := logging.Ctx(ctx)
		if err := h.reviews.SubmitReview(ctx, submission); err != nil {
			logger.Warn().Err(err).Str("facility_id", submission.FacilityID).Msg("review submission failed")
			return
		}
		logger.Info().Str("facility_id", submission.FacilityID).Msg("review submitted")
	}()

	rw.Accepted(ReviewAccepted{FacilityID: submission.FacilityID, Status: "submitted"})
}
