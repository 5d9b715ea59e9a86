// pkg/core/geometry.go
package core

import (
	"fmt"
	"math"
	"strings"
)

// Geometry is the closed set of annotation shape variants. The unexported
// method seals the interface so that only this package can add variants.
type Geometry interface {
	Kind() Kind
	// Anchor is the coordinate used to place a popup or list focus for the shape.
	Anchor() LatLng
	isGeometry()
}

// Marker is a single point marker.
type Marker struct {
	At LatLng
}

// Polyline is an open path of two or more points.
type Polyline struct {
	Points []LatLng
}

// Polygon is a closed ring of three or more points. The closing point is
// implicit and never stored.
type Polygon struct {
	Ring []LatLng
}

// Rectangle is an axis-aligned box with normalized corners.
type Rectangle struct {
	Bounds Bounds
}

// Circle is a center with a radius in meters.
type Circle struct {
	Center LatLng
	Radius float64
}

// TextLabel is a literal text annotation anchored at one point.
type TextLabel struct {
	At    LatLng
	Text  string
	Style TextStyle
}

func (Marker) Kind() Kind    { return KindMarker }
func (Polyline) Kind() Kind  { return KindPolyline }
func (Polygon) Kind() Kind   { return KindPolygon }
func (Rectangle) Kind() Kind { return KindRectangle }
func (Circle) Kind() Kind    { return KindCircle }
func (TextLabel) Kind() Kind { return KindText }

func (g Marker) Anchor() LatLng { return g.At }
func (g Polyline) Anchor() LatLng {
	if len(g.Points) == 0 {
		return LatLng{}
	}
	return g.Points[0]
}
func (g Polygon) Anchor() LatLng   { return centroid(g.Ring) }
func (g Rectangle) Anchor() LatLng { return centroid([]LatLng{g.Bounds.SouthWest, g.Bounds.NorthEast}) }
func (g Circle) Anchor() LatLng    { return g.Center }
func (g TextLabel) Anchor() LatLng { return g.At }

func (Marker) isGeometry()    {}
func (Polyline) isGeometry()  {}
func (Polygon) isGeometry()   {}
func (Rectangle) isGeometry() {}
func (Circle) isGeometry()    {}
func (TextLabel) isGeometry() {}

func centroid(points []LatLng) LatLng {
	if len(points) == 0 {
		return LatLng{}
	}
	var c LatLng
	for _, p := range points {
		c.Lat += p.Lat
		c.Lng += p.Lng
	}
	n := float64(len(points))
	return LatLng{Lat: c.Lat / n, Lng: c.Lng / n}
}

// NewMarker creates a marker at the given coordinate.
func NewMarker(at LatLng) (Marker, error) {
	g := Marker{At: at}
	return g, Validate(g)
}

// NewPolyline creates a polyline from at least two points. The slice is copied.
func NewPolyline(points []LatLng) (Polyline, error) {
	g := Polyline{Points: clonePoints(points)}
	return g, Validate(g)
}

// NewPolygon creates a polygon from at least three ring points. A trailing
// point equal to the first one is dropped since the ring is implicitly closed.
func NewPolygon(ring []LatLng) (Polygon, error) {
	ring = clonePoints(ring)
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	g := Polygon{Ring: ring}
	return g, Validate(g)
}

// NewRectangle creates a rectangle from two opposite corners given in any order.
func NewRectangle(a, b LatLng) (Rectangle, error) {
	g := Rectangle{Bounds: BoundsOf(a, b)}
	return g, Validate(g)
}

// NewCircle creates a circle with the radius in meters.
func NewCircle(center LatLng, radius float64) (Circle, error) {
	g := Circle{Center: center, Radius: radius}
	return g, Validate(g)
}

// NewTextLabel creates a text label. Blank text is rejected.
func NewTextLabel(at LatLng, text string, style TextStyle) (TextLabel, error) {
	g := TextLabel{At: at, Text: text, Style: style}
	return g, Validate(g)
}

// Validate checks a geometry value against the point-count and coordinate
// rules of its variant.
func Validate(g Geometry) error {
	switch g := g.(type) {
	case Marker:
		return validPoints(KindMarker, []LatLng{g.At})
	case Polyline:
		return validPoints(KindPolyline, g.Points)
	case Polygon:
		return validPoints(KindPolygon, g.Ring)
	case Rectangle:
		if g.Bounds.SouthWest.Lat > g.Bounds.NorthEast.Lat || g.Bounds.SouthWest.Lng > g.Bounds.NorthEast.Lng {
			return fmt.Errorf("%w: rectangle corners not normalized", ErrInvalidGeometry)
		}
		return validPoints(KindRectangle, []LatLng{g.Bounds.SouthWest, g.Bounds.NorthEast})
	case Circle:
		if math.IsNaN(g.Radius) || math.IsInf(g.Radius, 0) || g.Radius < 0 {
			return fmt.Errorf("%w: circle radius %v", ErrInvalidGeometry, g.Radius)
		}
		return validPoints(KindCircle, []LatLng{g.Center})
	case TextLabel:
		if strings.TrimSpace(g.Text) == "" {
			return fmt.Errorf("%w: text label is blank", ErrInvalidGeometry)
		}
		if err := g.Style.Validate(); err != nil {
			return err
		}
		return validPoints(KindText, []LatLng{g.At})
	case nil:
		return fmt.Errorf("%w: nil geometry", ErrInvalidGeometry)
	default:
		return fmt.Errorf("%w: unsupported geometry %T", ErrInvalidGeometry, g)
	}
}

// Degenerate reports whether a geometry has zero extent: a rectangle with no
// width or height, or a circle with zero radius.
func Degenerate(g Geometry) bool {
	switch g := g.(type) {
	case Rectangle:
		return g.Bounds.Empty()
	case Circle:
		return g.Radius == 0
	default:
		return false
	}
}

func validPoints(kind Kind, points []LatLng) error {
	if len(points) < kind.MinPoints() {
		return fmt.Errorf("%w: %s needs at least %d points, got %d", ErrInvalidGeometry, kind, kind.MinPoints(), len(points))
	}
	for i, p := range points {
		if !p.Valid() {
			return fmt.Errorf("%w: %s point %d out of range (%s)", ErrInvalidGeometry, kind, i, p)
		}
	}
	return nil
}

func clonePoints(points []LatLng) []LatLng {
	if points == nil {
		return nil
	}
	out := make([]LatLng, len(points))
	copy(out, points)
	return out
}

// Translate returns the geometry moved by the given offset in degrees.
func Translate(g Geometry, dLat, dLng float64) (Geometry, error) {
	shift := func(p LatLng) LatLng { return LatLng{Lat: p.Lat + dLat, Lng: p.Lng + dLng} }
	shiftAll := func(points []LatLng) []LatLng {
		out := make([]LatLng, len(points))
		for i, p := range points {
			out[i] = shift(p)
		}
		return out
	}

	var out Geometry
	switch g := g.(type) {
	case Marker:
		out = Marker{At: shift(g.At)}
	case Polyline:
		out = Polyline{Points: shiftAll(g.Points)}
	case Polygon:
		out = Polygon{Ring: shiftAll(g.Ring)}
	case Rectangle:
		out = Rectangle{Bounds: Bounds{SouthWest: shift(g.Bounds.SouthWest), NorthEast: shift(g.Bounds.NorthEast)}}
	case Circle:
		out = Circle{Center: shift(g.Center), Radius: g.Radius}
	case TextLabel:
		out = TextLabel{At: shift(g.At), Text: g.Text, Style: g.Style}
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %T", ErrInvalidGeometry, g)
	}
	return out, Validate(out)
}
