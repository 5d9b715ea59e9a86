package geo

import (
	"fmt"
	"math"
	"strconv"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/quakeph/quakemap/pkg/core"
)

// Property bag keys carried by every annotation feature.
const (
	PropID              = "id"
	PropKind            = "kind"
	PropName            = "name"
	PropColor           = "color"
	PropWeight          = "weight"
	PropFillOpacity     = "fillOpacity"
	PropCreatedAt       = "createdAt"
	PropRadius          = "radius"
	PropText            = "text"
	PropFontSize        = "fontSize"
	PropTextColor       = "textColor"
	PropBackgroundColor = "backgroundColor"
)

// ShapeToFeature converts a shape into a GeoJSON feature whose property bag
// carries its metadata, style and kind-specific fields.
func ShapeToFeature(s core.Shape) (geom.GeoJSONFeature, error) {
	props := map[string]interface{}{
		PropID:          s.ID,
		PropKind:        string(s.Kind()),
		PropName:        s.Name,
		PropColor:       s.Style.Color,
		PropWeight:      s.Style.Weight,
		PropFillOpacity: s.Style.FillOpacity,
		PropCreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	var g geom.Geometry
	switch sg := s.Geometry.(type) {
	case core.Marker:
		g = Point4326(sg.At).AsGeometry()
	case core.TextLabel:
		g = Point4326(sg.At).AsGeometry()
		props[PropText] = sg.Text
		props[PropFontSize] = sg.Style.FontSize
		props[PropTextColor] = sg.Style.TextColor
		props[PropBackgroundColor] = sg.Style.BackgroundColor
	case core.Circle:
		g = Point4326(sg.Center).AsGeometry()
		props[PropRadius] = sg.Radius
	case core.Polyline:
		g = LineString4326(sg.Points).AsGeometry()
	case core.Polygon:
		g = Polygon4326(sg.Ring).AsGeometry()
	case core.Rectangle:
		g = Polygon4326(sg.Bounds.Corners()).AsGeometry()
	default:
		return geom.GeoJSONFeature{}, fmt.Errorf("%w: unsupported geometry %T", core.ErrInvalidGeometry, sg)
	}

	return geom.GeoJSONFeature{
		Geometry:   g,
		ID:         s.ID,
		Properties: props,
	}, nil
}

// FeatureToShape reverses ShapeToFeature. The kind property selects the
// variant; the GeoJSON geometry type must agree with it.
func FeatureToShape(f geom.GeoJSONFeature) (core.Shape, error) {
	kindName, _ := f.Properties[PropKind].(string)
	kind, err := core.ParseKind(kindName)
	if err != nil {
		return core.Shape{}, fmt.Errorf("%w: %v", core.ErrInvalidGeometry, err)
	}

	id, err := intProp(f.Properties, PropID)
	if err != nil {
		return core.Shape{}, err
	}
	weight, err := intProp(f.Properties, PropWeight)
	if err != nil {
		return core.Shape{}, err
	}
	fill, err := floatProp(f.Properties, PropFillOpacity)
	if err != nil {
		return core.Shape{}, err
	}
	color, _ := f.Properties[PropColor].(string)
	name, _ := f.Properties[PropName].(string)

	s := core.Shape{
		ID:    id,
		Name:  name,
		Style: core.Style{Color: color, Weight: weight, FillOpacity: fill},
	}
	if raw, ok := f.Properties[PropCreatedAt].(string); ok && raw != "" {
		s.CreatedAt, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return core.Shape{}, fmt.Errorf("invalid %s: %w", PropCreatedAt, err)
		}
	}

	switch kind {
	case core.KindMarker, core.KindText, core.KindCircle:
		pt, ok := f.Geometry.AsPoint()
		if !ok {
			return core.Shape{}, fmt.Errorf("%w: %s stored as %s", core.ErrInvalidGeometry, kind, f.Geometry.Type())
		}
		xy, ok := pt.XY()
		if !ok {
			return core.Shape{}, fmt.Errorf("%w: empty point", core.ErrInvalidGeometry)
		}
		at := core.LatLng{Lat: xy.Y, Lng: xy.X}
		switch kind {
		case core.KindMarker:
			s.Geometry = core.Marker{At: at}
		case core.KindCircle:
			radius, err := floatProp(f.Properties, PropRadius)
			if err != nil {
				return core.Shape{}, err
			}
			s.Geometry = core.Circle{Center: at, Radius: radius}
		default:
			fontSize, err := intProp(f.Properties, PropFontSize)
			if err != nil {
				return core.Shape{}, err
			}
			text, _ := f.Properties[PropText].(string)
			textColor, _ := f.Properties[PropTextColor].(string)
			background, _ := f.Properties[PropBackgroundColor].(string)
			s.Geometry = core.TextLabel{At: at, Text: text, Style: core.TextStyle{
				FontSize:        fontSize,
				TextColor:       textColor,
				BackgroundColor: background,
			}}
		}
	case core.KindPolyline:
		ls, ok := f.Geometry.AsLineString()
		if !ok {
			return core.Shape{}, fmt.Errorf("%w: %s stored as %s", core.ErrInvalidGeometry, kind, f.Geometry.Type())
		}
		s.Geometry = core.Polyline{Points: LatLngsFromSequence(ls.Coordinates())}
	case core.KindPolygon, core.KindRectangle:
		poly, ok := f.Geometry.AsPolygon()
		if !ok {
			return core.Shape{}, fmt.Errorf("%w: %s stored as %s", core.ErrInvalidGeometry, kind, f.Geometry.Type())
		}
		ring := LatLngsFromSequence(poly.ExteriorRing().Coordinates())
		if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		if kind == core.KindPolygon {
			s.Geometry = core.Polygon{Ring: ring}
			break
		}
		b, ok := BoundOf(ring)
		if !ok {
			return core.Shape{}, fmt.Errorf("%w: empty rectangle", core.ErrInvalidGeometry)
		}
		s.Geometry = core.Rectangle{Bounds: b}
	}

	if err := s.Validate(); err != nil {
		return core.Shape{}, err
	}
	return s, nil
}

// JSON numbers decode as float64; ints written by ShapeToFeature are read back here.
func intProp(props map[string]interface{}, key string) (int, error) {
	switch v := props[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid %s: %v is not an integer", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("missing %s", key)
	}
}

func floatProp(props map[string]interface{}, key string) (float64, error) {
	switch v := props[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("missing %s", key)
	}
}
