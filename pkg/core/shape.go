// pkg/core/shape.go
package core

import (
	"fmt"
	"time"
)

// Shape is a committed, persisted annotation.
type Shape struct {
	ID        int
	Name      string
	Geometry  Geometry
	Style     Style
	CreatedAt time.Time
}

// Kind is derived from the geometry variant.
func (s Shape) Kind() Kind {
	if s.Geometry == nil {
		return ""
	}
	return s.Geometry.Kind()
}

// Validate checks both geometry and style.
func (s Shape) Validate() error {
	if err := Validate(s.Geometry); err != nil {
		return err
	}
	if err := s.Style.Validate(); err != nil {
		return err
	}
	return nil
}

// DisplayName formats the per-kind display label, e.g. "Polygon 3".
func DisplayName(kind Kind, n int) string {
	return fmt.Sprintf("%s %d", kind.Title(), n)
}

// Summary is a short human readable description of the geometry for list entries.
func (s Shape) Summary() string {
	switch g := s.Geometry.(type) {
	case Marker:
		return g.At.String()
	case Polyline:
		return fmt.Sprintf("%d points", len(g.Points))
	case Polygon:
		return fmt.Sprintf("%d vertices", len(g.Ring))
	case Rectangle:
		return fmt.Sprintf("%s to %s", g.Bounds.SouthWest, g.Bounds.NorthEast)
	case Circle:
		return fmt.Sprintf("r=%.0fm @ %s", g.Radius, g.Center)
	case TextLabel:
		return fmt.Sprintf("%q", g.Text)
	default:
		return ""
	}
}

// ListEntry is the side-list metadata of one shape.
type ListEntry struct {
	ID        int
	Name      string
	Kind      Kind
	Summary   string
	Color     string
	CreatedAt time.Time
}

// Entry returns the side-list metadata of s.
func (s Shape) Entry() ListEntry {
	return ListEntry{
		ID:        s.ID,
		Name:      s.Name,
		Kind:      s.Kind(),
		Summary:   s.Summary(),
		Color:     s.Style.Color,
		CreatedAt: s.CreatedAt,
	}
}
