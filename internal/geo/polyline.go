package geo

import (
	"encoding/json"
	"fmt"

	"github.com/quakeph/quakemap/pkg/core"
)

// ParsePath parses a JSON array of coordinates into a point list.
// Input format: "[[lat1,lng1],[lat2,lng2],...]"
func ParsePath(input string, minPoints int) ([]core.LatLng, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse path JSON: %w", err)
	}

	if len(coords) < minPoints {
		return nil, fmt.Errorf("path must have at least %d points, got %d", minPoints, len(coords))
	}

	points := make([]core.LatLng, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		p := core.LatLng{Lat: coord[0], Lng: coord[1]}
		if !p.Valid() {
			return nil, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
		points[i] = p
	}

	return points, nil
}
