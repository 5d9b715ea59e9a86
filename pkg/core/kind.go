// pkg/core/kind.go
package core

import (
	"fmt"
	"strings"
)

// Kind identifies one of the six annotation shape variants.
type Kind string

const (
	KindMarker    Kind = "marker"
	KindPolyline  Kind = "polyline"
	KindPolygon   Kind = "polygon"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindText      Kind = "text"
)

// Kinds lists every shape kind in tool-bar order.
var Kinds = []Kind{KindMarker, KindPolyline, KindPolygon, KindRectangle, KindCircle, KindText}

// ParseKind converts a kind name (case-insensitive) into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "marker", "point":
		return KindMarker, nil
	case "polyline", "line":
		return KindPolyline, nil
	case "polygon":
		return KindPolygon, nil
	case "rectangle", "rect":
		return KindRectangle, nil
	case "circle":
		return KindCircle, nil
	case "text", "label":
		return KindText, nil
	default:
		return "", fmt.Errorf("unknown shape kind: %q", s)
	}
}

// Title is the capitalized label used in display names ("Polygon 3").
func (k Kind) Title() string {
	switch k {
	case KindMarker:
		return "Marker"
	case KindPolyline:
		return "Line"
	case KindPolygon:
		return "Polygon"
	case KindRectangle:
		return "Rectangle"
	case KindCircle:
		return "Circle"
	case KindText:
		return "Text"
	default:
		return string(k)
	}
}

// MinPoints is the number of coordinates required before a shape of this kind
// can be finalized.
func (k Kind) MinPoints() int {
	switch k {
	case KindPolyline:
		return 2
	case KindPolygon:
		return 3
	case KindRectangle:
		return 2
	default:
		return 1
	}
}

// Draggable reports whether shapes of this kind can be repositioned by dragging.
func (k Kind) Draggable() bool {
	return k == KindMarker || k == KindText
}
