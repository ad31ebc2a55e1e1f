// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/geo"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/remote"
)

// Controller names, also used as metric labels and API path segments.
const (
	NameListings = "listings"
	NamePrices   = "prices"
	NameRoute    = "route"
)

// ListingsController syncs the facility list.
type ListingsController struct {
	*Controller[[]models.Facility]
}

// NewListingsController creates the facility listings controller.
func NewListingsController(api remote.DataAPI, deps Deps) *ListingsController {
	return &ListingsController{
		Controller: New(NameListings, cache.DomainListings, api.ListFacilities, deps),
	}
}

// FacilityCluster is one clustered map marker.
type FacilityCluster struct {
	Center geo.Point `json:"center"`
	Count  int       `json:"count"`
	IDs    []string  `json:"ids"`
}

// MapView is what the map shows for one viewport.
type MapView struct {
	Zoom       float64           `json:"zoom"`
	Visible    int               `json:"visible"`
	Clustered  bool              `json:"clustered"`
	Facilities []models.Facility `json:"facilities,omitempty"`
	Clusters   []FacilityCluster `json:"clusters,omitempty"`
	State      Snapshot          `json:"state"`
}

// MapView filters the current listings to bounds and clusters them when
// the zoom is low and enough facilities are visible. The embedded state
// carries no data payload.
func (c *ListingsController) MapView(bounds geo.Bounds, zoom float64) MapView {
	st := c.State()
	snap := snapshotOf(c.name, st)
	snap.Data = nil

	view := MapView{Zoom: zoom, State: snap}
	if st.Phase != PhaseReady {
		return view
	}

	visible := make([]models.Facility, 0, len(st.Data))
	for _, f := range st.Data {
		if bounds.Contains(f.Point()) {
			visible = append(visible, f)
		}
	}
	view.Visible = len(visible)

	if !geo.ShouldCluster(zoom, len(visible)) {
		view.Facilities = visible
		return view
	}

	view.Clustered = true
	for _, cl := range geo.ClusterBy(visible, models.Facility.Point, geo.RadiusForZoom(zoom)) {
		ids := make([]string, len(cl.Members))
		for i, m := range cl.Members {
			ids[i] = m.ID
		}
		view.Clusters = append(view.Clusters, FacilityCluster{Center: cl.Center, Count: cl.Size(), IDs: ids})
	}
	return view
}

// PricesController syncs the priced commodity list.
type PricesController struct {
	*Controller[[]models.Commodity]
}

// NewPricesController creates the commodity prices controller.
func NewPricesController(api remote.DataAPI, deps Deps) *PricesController {
	return &PricesController{
		Controller: New(NamePrices, cache.DomainPrices, api.ListCommodities, deps),
	}
}

var (
	// ErrNoDestination is returned by a route load before SetDestination.
	ErrNoDestination = errors.New("no destination set")

	// ErrNoRoute is returned by Geometry when no route is loaded.
	ErrNoRoute = errors.New("no route loaded")

	// ErrInvalidGeometry wraps the decode error of a route whose polyline
	// is malformed. Such a route is never published as Ready.
	ErrInvalidGeometry = errors.New("route geometry is malformed")
)

// OriginSource resolves the trip origin, normally a location.Resolver.
type OriginSource interface {
	Current(ctx context.Context) (models.Position, error)
}

// RouteController computes the route from the device position to a chosen
// destination. Routes are not cached.
type RouteController struct {
	*Controller[models.Route]

	api    remote.RoutingAPI
	origin OriginSource

	destMu      sync.RWMutex
	destination *models.Position
}

// NewRouteController creates the route controller.
func NewRouteController(api remote.RoutingAPI, origin OriginSource, deps Deps) *RouteController {
	rc := &RouteController{api: api, origin: origin}
	rc.Controller = New(NameRoute, "", rc.fetch, deps)
	return rc
}

// SetDestination sets the target for subsequent loads.
func (c *RouteController) SetDestination(dest models.Position) {
	c.destMu.Lock()
	defer c.destMu.Unlock()
	c.destination = &dest
}

// Destination returns the current target, if any.
func (c *RouteController) Destination() (models.Position, bool) {
	c.destMu.RLock()
	defer c.destMu.RUnlock()
	if c.destination == nil {
		return models.Position{}, false
	}
	return *c.destination, true
}

func (c *RouteController) fetch(ctx context.Context) (models.Route, error) {
	dest, ok := c.Destination()
	if !ok {
		return models.Route{}, ErrNoDestination
	}
	origin, err := c.origin.Current(ctx)
	if err != nil {
		return models.Route{}, err
	}
	route, err := c.api.Route(ctx, origin, dest)
	if err != nil {
		return models.Route{}, err
	}
	if _, err := route.Geometry(); err != nil {
		return models.Route{}, fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	return route, nil
}

// Geometry decodes the loaded route's polyline.
func (c *RouteController) Geometry() ([]geo.Point, error) {
	st := c.State()
	if st.Phase != PhaseReady {
		return nil, ErrNoRoute
	}
	return st.Data.Geometry()
}
