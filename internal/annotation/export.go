package annotation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/quakeph/quakemap/internal/geo"
)

// ExportFileName returns the download name for an export made at now. The
// date is the UTC day, matching the createdAt stamps inside.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("quakeph_drawings_%s.geojson", now.UTC().Format("2006-01-02"))
}

// FeatureCollection converts the collection, newest first, into a GeoJSON
// feature collection with style and metadata in each property bag.
func (s *Store) FeatureCollection() (geom.GeoJSONFeatureCollection, error) {
	fc := geom.GeoJSONFeatureCollection{}
	for shape := range s.List() {
		f, err := geo.ShapeToFeature(shape)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", shape.ID, err)
		}
		fc = append(fc, f)
	}
	return fc, nil
}

// WriteGeoJSON writes the feature collection to w.
func (s *Store) WriteGeoJSON(w io.Writer) error {
	fc, err := s.FeatureCollection()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}

// Export writes quakeph_drawings_<date>.geojson into dir and returns its path.
func (s *Store) Export(dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, ExportFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := s.WriteGeoJSON(f); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	s.log.Info("Exported annotations", "path", path, "count", s.Len())
	return path, nil
}
