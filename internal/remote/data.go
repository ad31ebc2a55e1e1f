// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package remote holds the clients for the two upstream services: the
// PostgREST data API serving facilities, prices and reviews, and an
// OSRM-compatible routing engine.
//
// Errors follow one taxonomy so the retry engine and the sync controllers
// can act on them without knowing HTTP:
//
//   - *NetworkError: no usable answer (transport failure, timeout, 408,
//     429, 502, 503, 504). Retryable.
//   - *DomainError: any other non-2xx answer from the data API.
//   - *RoutingError: the routing engine answered but found no route.
//
// An open circuit breaker surfaces as an error wrapping
// gobreaker.ErrOpenState and is not retried.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// DataAPI is the remote data service used by the sync controllers.
type DataAPI interface {
	ListFacilities(ctx context.Context) ([]models.Facility, error)
	ListCommodities(ctx context.Context) ([]models.Commodity, error)
	SubmitReview(ctx context.Context, review models.ReviewSubmission) error
}

// DataClient talks to a PostgREST endpoint.
type DataClient struct {
	ep *endpoint
}

// DataOption configures a DataClient.
type DataOption func(*dataOptions)

type dataOptions struct {
	httpClient *http.Client
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) DataOption {
	return func(o *dataOptions) {
		o.httpClient = c
	}
}

// NewDataClient creates a client for cfg.URL.
func NewDataClient(cfg *config.RemoteConfig, opts ...DataOption) (*DataClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote URL is required")
	}
	var o dataOptions
	for _, opt := range opts {
		opt(&o)
	}

	ep := newEndpoint("data", cfg.URL, o.httpClient, cfg.Timeout, cfg.RateLimit, cfg.RateBurst)
	ep.header.Set("Accept", "application/json")
	if cfg.APIKey != "" {
		ep.header.Set("apikey", cfg.APIKey)
		ep.header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return &DataClient{ep: ep}, nil
}

// ListFacilities returns every facility with its embedded prices and reviews.
func (c *DataClient) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	q := url.Values{}
	q.Set("select", "*,prices(*),reviews(*)")
	q.Set("order", "name.asc")

	var out []models.Facility
	if err := c.get(ctx, "list_facilities", "/rest/v1/facilities", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCommodities returns the priced commodity types.
func (c *DataClient) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "name.asc")

	var out []models.Commodity
	if err := c.get(ctx, "list_commodities", "/rest/v1/commodities", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitReview inserts one review. It is sent once; callers do not retry it.
func (c *DataClient) SubmitReview(ctx context.Context, review models.ReviewSubmission) error {
	if verr := validation.ValidateStruct(&review); verr != nil {
		return verr
	}
	body, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("submit_review: marshal: %w", err)
	}

	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("Prefer", "return=minimal")

	resp, err := c.ep.send(ctx, "submit_review", http.MethodPost, "/rest/v1/reviews", nil, body, hdr)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return parseDomainError("submit_review", resp)
	}
	return nil
}

func (c *DataClient) get(ctx context.Context, op, path string, q url.Values, out any) error {
	resp, err := c.ep.send(ctx, op, http.MethodGet, path, q, nil, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return parseDomainError(op, resp)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &DomainError{Op: op, Status: resp.Status, Code: "DECODE", Message: err.Error()}
	}
	return nil
}

// parseDomainError maps a PostgREST error body
// ({"code","message","details","hint"}) onto a DomainError. Bodies that are
// not JSON are kept verbatim as the message.
func parseDomainError(op string, resp *response) *DomainError {
	derr := &DomainError{Op: op, Status: resp.Status}
	if !gjson.ValidBytes(resp.Body) {
		derr.Message = string(resp.Body)
		return derr
	}
	fields := gjson.GetManyBytes(resp.Body, "code", "message", "details", "hint")
	derr.Code = fields[0].String()
	derr.Message = fields[1].String()
	derr.Details = fields[2].String()
	derr.Hint = fields[3].String()
	return derr
}
