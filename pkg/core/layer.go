// pkg/core/layer.go
package core

import (
	"fmt"
	"strings"
)

// Layer is the map mode currently displayed by the widget.
type Layer string

const (
	LayerEarthquake Layer = "earthquake"
	LayerHazard     Layer = "hazard"
	LayerRisk       Layer = "risk"
	LayerFault      Layer = "fault"
)

// ParseLayer converts a layer id into a Layer.
func ParseLayer(s string) (Layer, error) {
	switch l := Layer(strings.ToLower(strings.TrimSpace(s))); l {
	case LayerEarthquake, LayerHazard, LayerRisk, LayerFault:
		return l, nil
	default:
		return "", fmt.Errorf("unknown layer: %q", s)
	}
}

// Drawable reports whether annotations may be drawn while this layer is active.
// Only the live earthquake map and the fault-line overlay share the tile map.
func (l Layer) Drawable() bool {
	return l == LayerEarthquake || l == LayerFault
}

// Title is the heading shown above the map for the layer.
func (l Layer) Title() string {
	switch l {
	case LayerEarthquake:
		return "Philippine Earthquake Map"
	case LayerHazard:
		return "Seismic Hazard Map"
	case LayerRisk:
		return "Seismic Risk Map"
	case LayerFault:
		return "Philippine Fault Lines"
	default:
		return string(l)
	}
}

// LegendItem is one row of the map legend. Color is empty for text-only rows.
type LegendItem struct {
	Color string
	Label string
}

// Legend returns the legend rows shown for the layer.
func Legend(l Layer) []LegendItem {
	switch l {
	case LayerEarthquake:
		return []LegendItem{
			{Color: MagnitudeColor(2), Label: "Magnitude < 3.0"},
			{Color: MagnitudeColor(3), Label: "Magnitude 3.0 - 3.9"},
			{Color: MagnitudeColor(4), Label: "Magnitude 4.0 - 4.9"},
			{Color: MagnitudeColor(5), Label: "Magnitude 5.0 - 5.9"},
			{Color: MagnitudeColor(6), Label: "Magnitude >= 6.0"},
		}
	case LayerHazard:
		return []LegendItem{
			{Label: "Seismic Hazard Map shows probability of strong ground shaking."},
			{Label: "Colors indicate Peak Ground Acceleration (PGA)."},
		}
	case LayerRisk:
		return []LegendItem{
			{Label: "Seismic Risk Map shows estimated economic losses."},
			{Label: "Darker colors indicate higher risk areas."},
		}
	case LayerFault:
		return []LegendItem{{Color: FaultColor, Label: "Major Fault Lines"}}
	default:
		return nil
	}
}
