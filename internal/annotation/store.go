// Package annotation holds the committed shapes and mirrors them to a
// storage backend after every mutation.
package annotation

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/quakeph/quakemap/internal/storage"
	"github.com/quakeph/quakemap/pkg/core"
)

// DefaultKey is the storage key the collection is persisted under.
const DefaultKey = "quakeph_drawings"

// ErrNotDraggable is returned by Move for shapes that cannot be repositioned.
var ErrNotDraggable = errors.New("shape is not draggable")

// Options configures a Store.
type Options struct {
	Key    string
	Now    func() time.Time
	Logger *slog.Logger
	// OnFlush is called after every successful flush with the shape count.
	OnFlush func(count int)
}

// Store is the in-memory collection of shapes keyed by id.
type Store struct {
	backend storage.Backend
	key     string
	now     func() time.Time
	log     *slog.Logger
	onFlush func(count int)

	shapes map[int]core.Shape
	// records from the persisted blob that could not be decoded
	unreadable []json.RawMessage
	nextID     int
	mu         sync.RWMutex
}

// NewStore creates an empty store on top of backend. Call Load to rehydrate.
func NewStore(backend storage.Backend, opts Options) *Store {
	s := &Store{
		backend: backend,
		key:     opts.Key,
		now:     opts.Now,
		log:     opts.Logger,
		onFlush: opts.OnFlush,
		shapes:  make(map[int]core.Shape),
		nextID:  1,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Load rehydrates the store from the backend. A missing blob leaves the store
// empty. A read failure or an undecodable blob also leaves it empty and is
// reported as core.ErrPersistence. Unreadable records only drop themselves;
// the returned *RecordError lists them.
func (s *Store) Load() error {
	blob, err := s.backend.Load(s.key)
	if errors.Is(err, storage.ErrNotExist) {
		s.log.Debug("No persisted annotations", "key", s.key)
		return nil
	}
	if err != nil {
		s.reset()
		return fmt.Errorf("%w: read %s: %v", core.ErrPersistence, s.key, err)
	}
	if err := s.Rehydrate(blob); err != nil {
		var recErr *RecordError
		if errors.As(err, &recErr) {
			s.log.Warn("Skipped unreadable annotations", "key", s.key, "records", recErr.Skipped, "error", recErr.Err)
			return err
		}
		s.reset()
		return err
	}
	s.log.Info("Loaded annotations", "count", s.Len(), "nextId", s.NextID())
	return nil
}

func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapes = make(map[int]core.Shape)
	s.unreadable = nil
}

// Add inserts a shape. A zero id is assigned from the next-id counter; a
// missing CreatedAt is stamped now; an empty Name becomes "<Kind> <n>" where
// n is one more than the number of shapes of that kind already stored.
func (s *Store) Add(shape core.Shape) (core.Shape, error) {
	if err := shape.Validate(); err != nil {
		return core.Shape{}, err
	}

	s.mu.Lock()
	if shape.ID == 0 {
		shape.ID = s.nextID
	}
	if shape.ID < 0 {
		s.mu.Unlock()
		return core.Shape{}, fmt.Errorf("%w: negative id %d", core.ErrInvalidGeometry, shape.ID)
	}
	// every id below nextID has been issued already, even if since removed
	if _, exists := s.shapes[shape.ID]; exists || shape.ID < s.nextID {
		s.mu.Unlock()
		return core.Shape{}, fmt.Errorf("%w: %d", core.ErrDuplicateID, shape.ID)
	}
	s.nextID = shape.ID + 1
	if shape.CreatedAt.IsZero() {
		shape.CreatedAt = s.now().UTC()
	}
	if shape.Name == "" {
		shape.Name = core.DisplayName(shape.Kind(), s.countKind(shape.Kind())+1)
	}
	s.shapes[shape.ID] = shape
	s.mu.Unlock()

	s.log.Debug("Shape added", "id", shape.ID, "kind", shape.Kind(), "name", shape.Name)
	return shape, s.flush()
}

// Update applies mutator to a copy of the shape and stores the result. The
// id, kind and creation time cannot change.
func (s *Store) Update(id int, mutator func(*core.Shape) error) (core.Shape, error) {
	s.mu.Lock()
	current, ok := s.shapes[id]
	if !ok {
		s.mu.Unlock()
		return core.Shape{}, fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}

	next := current
	if err := mutator(&next); err != nil {
		s.mu.Unlock()
		return core.Shape{}, err
	}
	switch {
	case next.ID != current.ID:
		s.mu.Unlock()
		return core.Shape{}, fmt.Errorf("%w: id is immutable", core.ErrInvalidGeometry)
	case next.Kind() != current.Kind():
		s.mu.Unlock()
		return core.Shape{}, fmt.Errorf("%w: kind is immutable", core.ErrInvalidGeometry)
	case !next.CreatedAt.Equal(current.CreatedAt):
		s.mu.Unlock()
		return core.Shape{}, fmt.Errorf("%w: createdAt is immutable", core.ErrInvalidGeometry)
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return core.Shape{}, err
	}
	s.shapes[id] = next
	s.mu.Unlock()

	s.log.Debug("Shape updated", "id", id)
	return next, s.flush()
}

// Move repositions a marker or text label.
func (s *Store) Move(id int, to core.LatLng) (core.Shape, error) {
	return s.Update(id, func(shape *core.Shape) error {
		switch g := shape.Geometry.(type) {
		case core.Marker:
			g.At = to
			shape.Geometry = g
		case core.TextLabel:
			g.At = to
			shape.Geometry = g
		default:
			return fmt.Errorf("%w: %s", ErrNotDraggable, shape.Kind())
		}
		return nil
	})
}

// Translate shifts every point of a shape by the given offset in degrees.
func (s *Store) Translate(id int, dLat, dLng float64) (core.Shape, error) {
	return s.Update(id, func(shape *core.Shape) error {
		g, err := core.Translate(shape.Geometry, dLat, dLng)
		if err != nil {
			return err
		}
		shape.Geometry = g
		return nil
	})
}

// Restyle replaces the stored style of a shape.
func (s *Store) Restyle(id int, style core.Style) (core.Shape, error) {
	return s.Update(id, func(shape *core.Shape) error {
		shape.Style = style
		return nil
	})
}

// Remove deletes a shape. Removing an unknown id is a no-op and reports false.
func (s *Store) Remove(id int) (bool, error) {
	s.mu.Lock()
	if _, ok := s.shapes[id]; !ok {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.shapes, id)
	s.mu.Unlock()

	s.log.Debug("Shape removed", "id", id)
	return true, s.flush()
}

// Clear removes every shape and deletes the persisted blob. The next-id
// counter is left as is so ids are never reused within a session.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.shapes = make(map[int]core.Shape)
	s.unreadable = nil
	s.mu.Unlock()

	if err := s.backend.Delete(s.key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", core.ErrPersistence, s.key, err)
	}
	s.log.Info("All annotations cleared")
	if s.onFlush != nil {
		s.onFlush(0)
	}
	return nil
}

// Get returns the shape with the given id.
func (s *Store) Get(id int) (core.Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shape, ok := s.shapes[id]
	return shape, ok
}

// Len returns the number of stored shapes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shapes)
}

// NextID returns the id the next added shape will receive.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

func (s *Store) countKind(kind core.Kind) int {
	n := 0
	for _, shape := range s.shapes {
		if shape.Kind() == kind {
			n++
		}
	}
	return n
}

// List yields shapes newest first by CreatedAt, ties broken by higher id
// first. The order is recomputed on every iteration.
func (s *Store) List() iter.Seq[core.Shape] {
	return func(yield func(core.Shape) bool) {
		for _, shape := range s.snapshot() {
			if !yield(shape) {
				return
			}
		}
	}
}

func (s *Store) snapshot() []core.Shape {
	s.mu.RLock()
	out := make([]core.Shape, 0, len(s.shapes))
	for _, shape := range s.shapes {
		out = append(out, shape)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.Shape) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

// flush writes the whole collection to the backend.
func (s *Store) flush() error {
	blob, err := s.Serialize()
	if err != nil {
		return fmt.Errorf("%w: encode: %v", core.ErrPersistence, err)
	}
	if err := s.backend.Save(s.key, blob); err != nil {
		s.log.Error("Failed to persist annotations", "key", s.key, "error", err)
		return fmt.Errorf("%w: write %s: %v", core.ErrPersistence, s.key, err)
	}
	if s.onFlush != nil {
		s.onFlush(s.Len())
	}
	return nil
}
