// pkg/core/coordinate.go
package core

import (
	"fmt"
	"math"
)

// LatLng is a WGS84 geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite and within the WGS84 range.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p LatLng) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lng)
}

// Bounds is an axis-aligned box given by its south-west and north-east corners.
type Bounds struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}

// BoundsOf returns the bounding box of two opposite corners, in any order.
func BoundsOf(a, b LatLng) Bounds {
	return Bounds{
		SouthWest: LatLng{Lat: math.Min(a.Lat, b.Lat), Lng: math.Min(a.Lng, b.Lng)},
		NorthEast: LatLng{Lat: math.Max(a.Lat, b.Lat), Lng: math.Max(a.Lng, b.Lng)},
	}
}

// Contains reports whether p lies inside or on the edge of b.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// Empty reports whether the box has zero width or zero height.
func (b Bounds) Empty() bool {
	return b.SouthWest.Lat == b.NorthEast.Lat || b.SouthWest.Lng == b.NorthEast.Lng
}

// Corners returns the ring south-west, south-east, north-east, north-west.
func (b Bounds) Corners() []LatLng {
	return []LatLng{
		b.SouthWest,
		{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng},
		b.NorthEast,
		{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng},
	}
}
