// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"errors"
	"time"
)

// Domain identifies one cached data domain.
type Domain string

const (
	DomainListings Domain = "listings"
	DomainPrices   Domain = "prices"
	DomainPosition Domain = "position"
)

// Fixed per-domain TTLs.
const (
	ListingsTTL = 24 * time.Hour
	PricesTTL   = 6 * time.Hour
	PositionTTL = time.Hour
)

// ErrUnknownDomain is returned for domains without a TTL binding.
var ErrUnknownDomain = errors.New("unknown cache domain")

// Domains lists every cached domain.
func Domains() []Domain {
	return []Domain{DomainListings, DomainPrices, DomainPosition}
}

// TTL returns the domain's fixed time-to-live.
func (d Domain) TTL() (time.Duration, error) {
	switch d {
	case DomainListings:
		return ListingsTTL, nil
	case DomainPrices:
		return PricesTTL, nil
	case DomainPosition:
		return PositionTTL, nil
	default:
		return 0, ErrUnknownDomain
	}
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	_, err := d.TTL()
	return err == nil
}

func (d Domain) key() []byte {
	return []byte(keyPrefix + string(d))
}

const keyPrefix = "cache:"
