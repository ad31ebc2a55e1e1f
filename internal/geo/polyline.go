// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// PolylinePrecision is the divisor for six-decimal polylines (polyline6).
// The common five-decimal format uses 1e5 and is not compatible.
const PolylinePrecision = 1e6

var (
	// ErrTruncatedPolyline is returned when input ends inside a value.
	ErrTruncatedPolyline = errors.New("polyline truncated")

	// ErrInvalidPolylineChar is returned for bytes outside '?'..'~'.
	ErrInvalidPolylineChar = errors.New("invalid polyline character")

	// ErrPolylineOverflow is returned when a value does not fit in 64 bits.
	ErrPolylineOverflow = errors.New("polyline value overflow")
)

// Decode decodes a six-decimal encoded polyline. Empty input yields an
// empty slice. Malformed input yields an error and no points.
func Decode(encoded string) ([]Point, error) {
	points := make([]Point, 0, len(encoded)/4)
	var lat, lng int64
	for pos := 0; pos < len(encoded); {
		dLat, next, err := decodeValue(encoded, pos)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: latitude at offset %d has no longitude", ErrTruncatedPolyline, pos)
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		pos = next

		lat += dLat
		lng += dLng
		points = append(points, Point{
			Lat: float64(lat) / PolylinePrecision,
			Lng: float64(lng) / PolylinePrecision,
		})
	}
	return points, nil
}

// decodeValue reads one zig-zag varint starting at pos and returns the
// value and the offset after it.
func decodeValue(s string, pos int) (int64, int, error) {
	var raw uint64
	var shift uint
	for {
		if pos >= len(s) {
			return 0, pos, fmt.Errorf("%w at offset %d", ErrTruncatedPolyline, pos)
		}
		c := s[pos]
		if c < 63 || c > 126 {
			return 0, pos, fmt.Errorf("%w %q at offset %d", ErrInvalidPolylineChar, c, pos)
		}
		if shift >= 64 {
			return 0, pos, fmt.Errorf("%w at offset %d", ErrPolylineOverflow, pos)
		}
		chunk := uint64(c - 63)
		raw |= (chunk & 0x1f) << shift
		shift += 5
		pos++
		if chunk&0x20 == 0 {
			break
		}
	}
	if raw&1 != 0 {
		return ^int64(raw >> 1), pos, nil
	}
	return int64(raw >> 1), pos, nil
}

// Encode encodes points as a six-decimal polyline.
func Encode(points []Point) string {
	var b strings.Builder
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * PolylinePrecision))
		lng := int64(math.Round(p.Lng * PolylinePrecision))
		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		b.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	b.WriteByte(byte(u + 63))
}
