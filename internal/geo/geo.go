package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/quakeph/quakemap/pkg/core"
	"github.com/wroge/wgs84"
)

// Coordinates arrive as "lat,lng" in WGS84 degrees, the order the map surface
// reports pointer positions in. Distances are great-circle meters; planar
// work (segment distance for hit testing) happens in EPSG:3857.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var toWebMercator = wgs84.EPSG().Transform(4326, 3857)

// LatLngFromString parses a "lat,lng" string into a core.LatLng.
func LatLngFromString(coords string) (core.LatLng, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	p := core.LatLng{Lat: lat, Lng: lng}
	if !p.Valid() {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	return p, nil
}

// Drawn shapes may be degenerate (a click-sized rectangle, a collinear or
// self-crossing freehand ring), so geometries are built with validation off.
// Nothing here runs simplefeatures' overlay algorithms on them.
var unchecked geom.ConstructorOption = geom.DisableAllValidations

// Point4326 converts a coordinate into a simplefeatures point (X=lng, Y=lat).
func Point4326(p core.LatLng) geom.Point {
	pt, _ := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.Lng, Y: p.Lat},
		Type: geom.DimXY,
	}, unchecked)
	return pt
}

// Point3857 projects a coordinate into a web mercator point.
func Point3857(p core.LatLng) geom.Point {
	x, y, _ := toWebMercator(p.Lng, p.Lat, 0)
	pt, _ := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	}, unchecked)
	return pt
}

// LineString4326 builds a simplefeatures line string from coordinates.
func LineString4326(points []core.LatLng) geom.LineString {
	ls, _ := geom.NewLineString(sequence(points, false, nil), unchecked)
	return ls
}

// LineString3857 builds a projected line string from coordinates.
func LineString3857(points []core.LatLng) geom.LineString {
	ls, _ := geom.NewLineString(sequence(points, false, toWebMercator), unchecked)
	return ls
}

// Polygon4326 builds a polygon from an open ring; the closing point is always appended.
func Polygon4326(ring []core.LatLng) geom.Polygon {
	poly, _ := geom.NewPolygon([]geom.LineString{lineString(sequence(ring, true, nil))}, unchecked)
	return poly
}

func lineString(seq geom.Sequence) geom.LineString {
	ls, _ := geom.NewLineString(seq, unchecked)
	return ls
}

// UnmarshalGeometry decodes a GeoJSON geometry object, accepting the
// degenerate shapes the constructors above produce.
func UnmarshalGeometry(raw []byte) (geom.Geometry, error) {
	return geom.UnmarshalGeoJSON(raw, unchecked)
}

func sequence(points []core.LatLng, closed bool, project func(a, b, c float64) (float64, float64, float64)) geom.Sequence {
	flat := make([]float64, 0, (len(points)+1)*2)
	add := func(p core.LatLng) {
		x, y := p.Lng, p.Lat
		if project != nil {
			x, y, _ = project(x, y, 0)
		}
		flat = append(flat, x, y)
	}
	for _, p := range points {
		add(p)
	}
	// always close, even when the ring already ends on its first point, so a
	// reader can drop exactly one trailing point
	if closed && len(points) > 0 {
		add(points[0])
	}
	return geom.NewSequence(flat, geom.DimXY)
}

// LatLngsFromSequence converts a simplefeatures sequence back to coordinates.
func LatLngsFromSequence(seq geom.Sequence) []core.LatLng {
	out := make([]core.LatLng, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		out[i] = core.LatLng{Lat: xy.Y, Lng: xy.X}
	}
	return out
}

func orbPoint(p core.LatLng) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Distance is the great-circle distance between two coordinates in meters.
func Distance(a, b core.LatLng) float64 {
	return orbgeo.DistanceHaversine(orbPoint(a), orbPoint(b))
}

// Bound converts rectangle bounds to an orb.Bound.
func Bound(b core.Bounds) orb.Bound {
	return orb.Bound{Min: orbPoint(b.SouthWest), Max: orbPoint(b.NorthEast)}
}

// BoundOf returns the bounding box of a set of coordinates.
func BoundOf(points []core.LatLng) (core.Bounds, bool) {
	if len(points) == 0 {
		return core.Bounds{}, false
	}
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orbPoint(p)
	}
	b := mp.Bound()
	return core.Bounds{
		SouthWest: core.LatLng{Lat: b.Min.Lat(), Lng: b.Min.Lon()},
		NorthEast: core.LatLng{Lat: b.Max.Lat(), Lng: b.Max.Lon()},
	}, true
}

// GeometryBounds returns the bounding box covering a geometry. Circles are
// expanded by their radius along the four compass bearings.
func GeometryBounds(g core.Geometry) (core.Bounds, bool) {
	switch g := g.(type) {
	case core.Marker:
		return core.BoundsOf(g.At, g.At), true
	case core.TextLabel:
		return core.BoundsOf(g.At, g.At), true
	case core.Polyline:
		return BoundOf(g.Points)
	case core.Polygon:
		return BoundOf(g.Ring)
	case core.Rectangle:
		return g.Bounds, true
	case core.Circle:
		c := orbPoint(g.Center)
		edge := make([]core.LatLng, 0, 4)
		for _, bearing := range []float64{0, 90, 180, 270} {
			p := orbgeo.PointAtBearingAndDistance(c, bearing, g.Radius)
			edge = append(edge, core.LatLng{Lat: p.Lat(), Lng: p.Lon()})
		}
		return BoundOf(edge)
	default:
		return core.Bounds{}, false
	}
}

// FitZoom returns the closest web map zoom, clamped to [lo, hi], at which the
// bounds span about one 256px tile. Point-sized bounds get hi.
func FitZoom(b core.Bounds, lo, hi int) int {
	span := math.Max(b.NorthEast.Lat-b.SouthWest.Lat, b.NorthEast.Lng-b.SouthWest.Lng)
	if span <= 0 {
		return hi
	}
	z := int(math.Floor(math.Log2(360 / span)))
	return min(max(z, lo), hi)
}

// groundScale converts web mercator lengths at a latitude into ground meters.
func groundScale(lat float64) float64 {
	return math.Cos(lat * math.Pi / 180)
}
