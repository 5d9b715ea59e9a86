package feed

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/pkg/core"
)

// DecodeQuakes converts USGS summary features. Features that are not points
// are skipped; missing properties leave zero values.
func DecodeQuakes(fc geom.GeoJSONFeatureCollection) ([]core.Quake, error) {
	out := make([]core.Quake, 0, len(fc))
	for i, f := range fc {
		pt, ok := f.Geometry.AsPoint()
		if !ok {
			continue
		}
		c, ok := pt.Coordinates()
		if !ok {
			return nil, fmt.Errorf("%w: feature %d has an empty point", core.ErrInvalidGeometry, i)
		}
		q := core.Quake{
			ID:        idString(f.ID),
			Magnitude: number(f.Properties["mag"]),
			Place:     text(f.Properties["place"]),
			Status:    text(f.Properties["status"]),
			Depth:     c.Z,
			At:        core.LatLng{Lat: c.XY.Y, Lng: c.XY.X},
		}
		if ms := number(f.Properties["time"]); ms != 0 {
			q.Time = time.UnixMilli(int64(ms)).UTC()
		}
		out = append(out, q)
	}
	return out, nil
}

// DecodeFaults converts plate boundary features. Multi-part boundaries become
// one FaultLine per part with the same name.
func DecodeFaults(fc geom.GeoJSONFeatureCollection) ([]core.FaultLine, error) {
	var out []core.FaultLine
	for _, f := range fc {
		name := text(f.Properties["Name"])
		switch f.Geometry.Type() {
		case geom.TypeLineString:
			ls, _ := f.Geometry.AsLineString()
			out = appendFault(out, name, ls)
		case geom.TypeMultiLineString:
			mls, _ := f.Geometry.AsMultiLineString()
			for i := 0; i < mls.NumLineStrings(); i++ {
				out = appendFault(out, name, mls.LineStringN(i))
			}
		}
	}
	return out, nil
}

func appendFault(out []core.FaultLine, name string, ls geom.LineString) []core.FaultLine {
	points := geo.LatLngsFromSequence(ls.Coordinates())
	if len(points) < 2 {
		return out
	}
	return append(out, core.FaultLine{Name: name, Points: points})
}

func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func text(v any) string {
	s, _ := v.(string)
	return s
}
