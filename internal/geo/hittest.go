package geo

import (
	"fmt"
	"iter"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/quakeph/quakemap/pkg/core"
)

// Hits reports whether a pointer at p lands on the geometry. tolerance is in
// meters and applies to point-like and line shapes; areas hit on containment.
func Hits(g core.Geometry, p core.LatLng, tolerance float64) (bool, error) {
	switch g := g.(type) {
	case core.Marker:
		return Distance(g.At, p) <= tolerance, nil
	case core.TextLabel:
		return Distance(g.At, p) <= tolerance, nil
	case core.Circle:
		return Distance(g.Center, p) <= g.Radius+tolerance, nil
	case core.Rectangle:
		return Bound(g.Bounds).Contains(orbPoint(p)), nil
	case core.Polygon:
		ring := make(orb.Ring, len(g.Ring))
		for i, v := range g.Ring {
			ring[i] = orbPoint(v)
		}
		return planar.RingContains(ring, orbPoint(p)), nil
	case core.Polyline:
		d, ok := geom.Distance(LineString3857(g.Points).AsGeometry(), Point3857(p).AsGeometry())
		if !ok {
			return false, nil
		}
		return d*groundScale(p.Lat) <= tolerance, nil
	default:
		return false, fmt.Errorf("%w: unsupported geometry %T", core.ErrInvalidGeometry, g)
	}
}

// HitTest returns the first shape in the sequence hit by p. Callers pass
// shapes topmost first so the most recently drawn shape wins.
func HitTest(shapes iter.Seq[core.Shape], p core.LatLng, tolerance float64) (core.Shape, bool) {
	for s := range shapes {
		hit, err := Hits(s.Geometry, p, tolerance)
		if err != nil {
			continue
		}
		if hit {
			return s, true
		}
	}
	return core.Shape{}, false
}
