package annotation

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/pkg/core"
)

// record is one element of the persisted array. The feature's property bag
// is authoritative; the top-level fields are there for quick inspection.
type record struct {
	ID        int                 `json:"id"`
	Kind      core.Kind           `json:"kind"`
	Name      string              `json:"name"`
	Color     string              `json:"color"`
	CreatedAt time.Time           `json:"createdAt"`
	Geometry  geom.GeoJSONFeature `json:"geometry"`
}

// Serialize encodes the collection, ordered by id, as the persisted JSON array.
// Records that could not be read at load time follow, unchanged.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.RLock()
	shapes := make([]core.Shape, 0, len(s.shapes))
	for _, shape := range s.shapes {
		shapes = append(shapes, shape)
	}
	unreadable := s.unreadable
	s.mu.RUnlock()

	slices.SortFunc(shapes, func(a, b core.Shape) int { return cmp.Compare(a.ID, b.ID) })

	records := make([]any, 0, len(shapes)+len(unreadable))
	for _, shape := range shapes {
		f, err := geo.ShapeToFeature(shape)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", shape.ID, err)
		}
		records = append(records, record{
			ID:        shape.ID,
			Kind:      shape.Kind(),
			Name:      shape.Name,
			Color:     shape.Style.Color,
			CreatedAt: shape.CreatedAt.UTC(),
			Geometry:  f,
		})
	}
	for _, raw := range unreadable {
		records = append(records, raw)
	}
	return json.Marshal(records)
}

// RecordError reports persisted records that could not be read. The
// readable records are still loaded; the unreadable ones are kept verbatim
// and written back on the next flush.
type RecordError struct {
	Skipped []int
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%v: %d unreadable record(s): %v", core.ErrPersistence, len(e.Skipped), e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{core.ErrPersistence, e.Err}
}

// storedFeature mirrors geom.GeoJSONFeature but leaves the geometry raw so
// it can be decoded without simplefeatures' validity checks.
type storedFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type storedRecord struct {
	ID        int           `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	Geometry  storedFeature `json:"geometry"`
}

// Rehydrate replaces the collection with the decoded blob and sets the
// next-id counter to max(id)+1, or 1 for an empty blob. If the blob is not a
// JSON array the store is left untouched. Records that fail to decode are
// skipped and reported through a *RecordError; their ids still count
// towards the next-id counter.
func (s *Store) Rehydrate(blob []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(blob, &raws); err != nil {
		return fmt.Errorf("%w: decode: %v", core.ErrPersistence, err)
	}

	shapes := make(map[int]core.Shape, len(raws))
	var (
		maxID      int
		skipped    []int
		unreadable []json.RawMessage
		errs       []error
	)
	for i, raw := range raws {
		shape, id, err := decodeRecord(raw)
		maxID = max(maxID, id)
		if err != nil {
			skipped = append(skipped, i)
			unreadable = append(unreadable, raw)
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		// the first record with an id wins; later copies are dropped
		if _, dup := shapes[shape.ID]; dup {
			skipped = append(skipped, i)
			errs = append(errs, fmt.Errorf("record %d: %w %d", i, core.ErrDuplicateID, shape.ID))
			continue
		}
		shapes[shape.ID] = shape
	}

	s.mu.Lock()
	s.shapes = shapes
	s.unreadable = unreadable
	s.nextID = maxID + 1
	s.mu.Unlock()

	if len(errs) > 0 {
		return &RecordError{Skipped: skipped, Err: errors.Join(errs...)}
	}
	return nil
}

// decodeRecord returns the shape and the record id, which is reported even
// when the rest of the record is unreadable.
func decodeRecord(raw json.RawMessage) (core.Shape, int, error) {
	var r storedRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		var idOnly struct {
			ID int `json:"id"`
		}
		_ = json.Unmarshal(raw, &idOnly)
		return core.Shape{}, max(idOnly.ID, 0), err
	}
	id := max(r.ID, 0)
	if r.Geometry.Type != "Feature" {
		return core.Shape{}, id, fmt.Errorf("geometry is %q, not a Feature", r.Geometry.Type)
	}
	g, err := geo.UnmarshalGeometry(r.Geometry.Geometry)
	if err != nil {
		return core.Shape{}, id, err
	}
	shape, err := geo.FeatureToShape(geom.GeoJSONFeature{Geometry: g, Properties: r.Geometry.Properties})
	if err != nil {
		return core.Shape{}, id, err
	}
	if shape.ID != r.ID {
		return core.Shape{}, max(id, shape.ID), fmt.Errorf("id %d does not match feature id %d", r.ID, shape.ID)
	}
	if shape.ID <= 0 {
		return core.Shape{}, id, fmt.Errorf("invalid id %d", shape.ID)
	}
	if shape.CreatedAt.IsZero() {
		shape.CreatedAt = r.CreatedAt
	}
	return shape, id, nil
}
