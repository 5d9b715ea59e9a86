// pkg/core/quake.go
package core

import (
	"math"
	"time"
)

// Quake is one event from the earthquake feed.
type Quake struct {
	ID        string
	Magnitude float64
	Place     string
	Time      time.Time
	Depth     float64 // km
	Status    string
	At        LatLng
}

// MagnitudeColor returns the marker fill color for a magnitude band.
func MagnitudeColor(mag float64) string {
	switch {
	case mag < 3:
		return "#4cd964"
	case mag < 4:
		return "#ffcc00"
	case mag < 5:
		return "#ff9500"
	case mag < 6:
		return "#ff3b30"
	default:
		return "#8b0000"
	}
}

// MarkerRadius returns the circle-marker radius in pixels for a magnitude.
func MarkerRadius(mag float64) float64 {
	return math.Max(mag*3, 8)
}

// QuakeMarker is how an event is drawn on the earthquake layer.
type QuakeMarker struct {
	Fill        string
	Stroke      string
	Radius      float64
	Weight      int
	FillOpacity float64
}

// Marker returns the circle-marker style for the event. A highlighted marker
// gets a heavier outline and a more opaque fill.
func (q Quake) Marker(highlighted bool) QuakeMarker {
	m := QuakeMarker{
		Fill:        MagnitudeColor(q.Magnitude),
		Stroke:      "#ffffff",
		Radius:      MarkerRadius(q.Magnitude),
		Weight:      1,
		FillOpacity: 0.7,
	}
	if highlighted {
		m.Weight = 3
		m.FillOpacity = 0.9
	}
	return m
}

// FaultColor is the stroke color of plate boundaries.
const FaultColor = "#facc15"

// FaultLine is one named plate boundary from the fault feed.
type FaultLine struct {
	Name   string
	Points []LatLng
}
