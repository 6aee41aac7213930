package utils

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ValidCoordinates reports whether lat/lon are finite and in range.
func ValidCoordinates(lat, lon float64) bool {
	return ValidateCoordinate(lat, lon) == nil
}

// ValidateCoordinate validates a single coordinate
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("coordinate is not a number")
	}

	// Latitude must be between -90 and 90
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", lat)
	}

	// Longitude must be between -180 and 180
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", lon)
	}

	return nil
}

// DistanceKm is the great-circle distance between two (lon, lat) points.
func DistanceKm(a, b orb.Point) float64 {
	return geo.Distance(a, b) / 1000
}

// SortByDistance orders points by distance from origin and returns the
// original indexes in that order.
func SortByDistance(origin orb.Point, points []orb.Point) []int {
	idx := make([]int, len(points))
	dist := make([]float64, len(points))
	for i, p := range points {
		idx[i] = i
		dist[i] = geo.Distance(origin, p)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return dist[idx[a]] < dist[idx[b]]
	})
	return idx
}
