// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package geo

// Zoom-dependent clustering parameters.
const (
	// ClusterZoomThreshold is the zoom level at and above which points are
	// shown individually.
	ClusterZoomThreshold = 13

	// ClusterMinVisible is the visible point count that must be exceeded
	// before clustering applies.
	ClusterMinVisible = 10
)

// Cluster is a group of items around a seed.
type Cluster[T any] struct {
	// Seed is the first unassigned item that opened the cluster.
	Seed T `json:"seed"`
	// Members includes the seed, in input order.
	Members []T `json:"members"`
	// Center is the arithmetic mean of member coordinates.
	Center Point `json:"center"`
}

// Size returns the member count.
func (c Cluster[T]) Size() int {
	return len(c.Members)
}

// ClusterBy groups items greedily in one pass. The first unassigned item
// seeds a cluster; every later unassigned item within radiusMeters of the
// seed joins it. Membership is tested against the seed only, never the
// running center, so the result depends on input order.
//
// Every item ends up in exactly one cluster.
func ClusterBy[T any](items []T, pos func(T) Point, radiusMeters float64) []Cluster[T] {
	assigned := make([]bool, len(items))
	positions := make([]Point, len(items))
	for i, it := range items {
		positions[i] = pos(it)
	}

	var clusters []Cluster[T]
	for i := range items {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		seed := positions[i]
		c := Cluster[T]{Seed: items[i], Members: []T{items[i]}}
		sumLat, sumLng := seed.Lat, seed.Lng

		for j := i + 1; j < len(items); j++ {
			if assigned[j] {
				continue
			}
			if Haversine(seed, positions[j]) <= radiusMeters {
				assigned[j] = true
				c.Members = append(c.Members, items[j])
				sumLat += positions[j].Lat
				sumLng += positions[j].Lng
			}
		}

		n := float64(len(c.Members))
		c.Center = Point{Lat: sumLat / n, Lng: sumLng / n}
		clusters = append(clusters, c)
	}
	return clusters
}

// ClusterPoints is ClusterBy for bare points.
func ClusterPoints(points []Point, radiusMeters float64) []Cluster[Point] {
	return ClusterBy(points, func(p Point) Point { return p }, radiusMeters)
}

// RadiusForZoom returns the clustering radius in meters for a map zoom.
func RadiusForZoom(zoom float64) float64 {
	switch {
	case zoom < 10:
		return 5000
	case zoom < 12:
		return 2000
	case zoom < 13:
		return 1000
	default:
		return 500
	}
}

// ShouldCluster reports whether visible points at zoom should be clustered.
func ShouldCluster(zoom float64, visible int) bool {
	return zoom < ClusterZoomThreshold && visible > ClusterMinVisible
}
