// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import (
	"time"

	"github.com/tomtom215/wayfarer/internal/geo"
)

// Position is a device location fix.
type Position struct {
	Latitude  float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64   `json:"accuracy,omitempty"` // meters
	Timestamp time.Time `json:"timestamp"`
}

// Point returns the position's coordinate.
func (p Position) Point() geo.Point {
	return geo.Point{Lat: p.Latitude, Lng: p.Longitude}
}

// Route is a computed travel route between two positions.
type Route struct {
	Origin          Position `json:"origin"`
	Destination     Position `json:"destination"`
	DistanceMeters  float64  `json:"distance_meters"`
	DurationSeconds float64  `json:"duration_seconds"`
	// EncodedGeometry is a six-decimal polyline.
	EncodedGeometry string `json:"encoded_geometry"`
}

// Geometry decodes the route polyline.
func (r Route) Geometry() ([]geo.Point, error) {
	return geo.Decode(r.EncodedGeometry)
}
