package session

import (
	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/pkg/core"
)

// Preview returns the provisional geometry for a state with the pointer at
// cursor. It has no side effects; the renderer decides how to redraw.
func Preview(s State, cursor core.LatLng) (core.Geometry, bool) {
	switch s.Phase {
	case Dragging:
		switch s.Tool {
		case core.KindRectangle:
			return core.Rectangle{Bounds: core.BoundsOf(s.Anchor, cursor)}, true
		case core.KindCircle:
			return core.Circle{Center: s.Anchor, Radius: geo.Distance(s.Anchor, cursor)}, true
		}
	case PathBuilding:
		points := make([]core.LatLng, 0, len(s.Points)+1)
		points = append(points, s.Points...)
		if len(points) == 0 || points[len(points)-1] != cursor {
			points = append(points, cursor)
		}
		if len(points) < 2 {
			return nil, false
		}
		if s.Tool == core.KindPolygon && len(points) >= 3 {
			return core.Polygon{Ring: points}, true
		}
		return core.Polyline{Points: points}, true
	}
	return nil, false
}
