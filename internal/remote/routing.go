// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/models"
)

// RoutingAPI computes a route between two positions.
type RoutingAPI interface {
	Route(ctx context.Context, origin, destination models.Position) (models.Route, error)
}

// RoutingClient talks to an OSRM-compatible /route/v1 service and requests
// six-decimal polyline geometry.
type RoutingClient struct {
	ep      *endpoint
	profile string
}

// NewRoutingClient creates a client for cfg.URL.
func NewRoutingClient(cfg *config.RoutingConfig, opts ...DataOption) (*RoutingClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("routing URL is required")
	}
	var o dataOptions
	for _, opt := range opts {
		opt(&o)
	}
	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}
	ep := newEndpoint("routing", cfg.URL, o.httpClient, cfg.Timeout, 0, 1)
	ep.header.Set("Accept", "application/json")
	return &RoutingClient{ep: ep, profile: profile}, nil
}

// Route fetches the best route from origin to destination.
func (c *RoutingClient) Route(ctx context.Context, origin, destination models.Position) (models.Route, error) {
	path := fmt.Sprintf("/route/v1/%s/%s;%s",
		url.PathEscape(c.profile), coord(origin), coord(destination))

	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "polyline6")

	resp, err := c.ep.send(ctx, "route", http.MethodGet, path, q, nil, nil)
	if err != nil {
		return models.Route{}, err
	}
	if !gjson.ValidBytes(resp.Body) {
		if !resp.ok() {
			return models.Route{}, &DomainError{Op: "route", Status: resp.Status, Message: string(resp.Body)}
		}
		return models.Route{}, &RoutingError{Status: resp.Status, Code: "InvalidResponse", Message: "malformed routing response"}
	}

	// OSRM reports NoRoute and friends with a 400 and a code field.
	code := gjson.GetBytes(resp.Body, "code").String()
	if code != "Ok" {
		if code == "" {
			return models.Route{}, &DomainError{Op: "route", Status: resp.Status, Message: string(resp.Body)}
		}
		return models.Route{}, &RoutingError{
			Status:  resp.Status,
			Code:    code,
			Message: gjson.GetBytes(resp.Body, "message").String(),
		}
	}

	best := gjson.GetBytes(resp.Body, "routes.0")
	if !best.Exists() {
		return models.Route{}, &RoutingError{Status: resp.Status, Code: "NoRoute", Message: "no routes returned"}
	}

	return models.Route{
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  best.Get("distance").Float(),
		DurationSeconds: best.Get("duration").Float(),
		EncodedGeometry: best.Get("geometry").String(),
	}, nil
}

// coord formats a position as OSRM's "lng,lat".
func coord(p models.Position) string {
	return strconv.FormatFloat(p.Longitude, 'f', 6, 64) + "," + strconv.FormatFloat(p.Latitude, 'f', 6, 64)
}
