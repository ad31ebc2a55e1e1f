// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import (
	"time"

	"github.com/tomtom215/wayfarer/internal/geo"
)

// Facility is a listed location with its current prices and reviews.
// Field names follow the remote table columns.
type Facility struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand,omitempty"`
	Address   string    `json:"address,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Prices    []Price   `json:"prices,omitempty"`  // embedded via PostgREST select
	Reviews   []Review  `json:"reviews,omitempty"` // embedded via PostgREST select
	UpdatedAt time.Time `json:"updated_at"`
}

// Point returns the facility's coordinate.
func (f Facility) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lng: f.Longitude}
}

// AverageRating returns the mean review rating, or 0 without reviews.
func (f Facility) AverageRating() float64 {
	if len(f.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range f.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(f.Reviews))
}

// Price is one reported price of a commodity at a facility.
type Price struct {
	FacilityID  string    `json:"facility_id"`
	CommodityID string    `json:"commodity_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	ReportedAt  time.Time `json:"reported_at"`
}

// Review is a user review of a facility.
type Review struct {
	ID         string    `json:"id"`
	FacilityID string    `json:"facility_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Author     string    `json:"author,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewSubmission is a new review sent by a client.
type ReviewSubmission struct {
	FacilityID string `json:"facility_id" validate:"required,max=64"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment,omitempty" validate:"max=1000"`
	Author     string `json:"author,omitempty" validate:"max=100"`
}

// Commodity is a priced commodity type (for example a fuel grade).
type Commodity struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	AveragePrice float64   `json:"average_price"`
	Currency     string    `json:"currency"`
	UpdatedAt    time.Time `json:"updated_at"`
}
