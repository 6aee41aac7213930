package utils

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		valid    bool
	}{
		{"zagreb", 45.815, 15.9819, true},
		{"poles and antimeridian", -90, 180, true},
		{"latitude too high", 90.1, 0, false},
		{"longitude too low", 0, -180.5, false},
		{"nan", math.NaN(), 0, false},
		{"inf", 0, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCoordinates(tt.lat, tt.lon); got != tt.valid {
				t.Errorf("ValidCoordinates(%v, %v) = %v, expected %v", tt.lat, tt.lon, got, tt.valid)
			}
		})
	}
}

func TestDistanceKm(t *testing.T) {
	zagreb := orb.Point{15.9819, 45.815}
	split := orb.Point{16.4402, 43.5081}

	d := DistanceKm(zagreb, split)
	if d < 255 || d > 262 {
		t.Errorf("DistanceKm(zagreb, split) = %.1f, expected about 258", d)
	}
	if DistanceKm(zagreb, zagreb) != 0 {
		t.Errorf("distance to self should be 0")
	}
}

func TestSortByDistance(t *testing.T) {
	origin := orb.Point{15.98, 45.81}
	points := []orb.Point{
		{16.44, 43.51}, // split
		{15.97, 45.80}, // next door
		{18.69, 45.55}, // osijek
	}
	got := SortByDistance(origin, points)
	expected := []int{1, 2, 0}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("SortByDistance = %v, expected %v", got, expected)
		}
	}
}
