// pkg/core/style.go
package core

import (
	"fmt"
	"math"
	"regexp"
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Style is the stroke and fill styling shared by every shape.
type Style struct {
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

// Validate rejects colors that are not hex, negative weights and fill
// opacities outside 0..1.
func (s Style) Validate() error {
	if !colorPattern.MatchString(s.Color) {
		return fmt.Errorf("%w: stroke color %q", ErrInvalidGeometry, s.Color)
	}
	if s.Weight < 0 {
		return fmt.Errorf("%w: stroke weight %d", ErrInvalidGeometry, s.Weight)
	}
	if math.IsNaN(s.FillOpacity) || s.FillOpacity < 0 || s.FillOpacity > 1 {
		return fmt.Errorf("%w: fill opacity %v", ErrInvalidGeometry, s.FillOpacity)
	}
	return nil
}

// Highlighted returns the style used while a shape is selected.
func (s Style) Highlighted(color string) Style {
	return Style{Color: color, Weight: s.Weight + 2, FillOpacity: s.FillOpacity}
}

// TextStyle is the extra styling carried by text labels.
type TextStyle struct {
	FontSize        int    `json:"fontSize"`
	TextColor       string `json:"textColor"`
	BackgroundColor string `json:"backgroundColor"`
}

func (s TextStyle) Validate() error {
	if s.FontSize <= 0 {
		return fmt.Errorf("%w: font size %d", ErrInvalidGeometry, s.FontSize)
	}
	if !colorPattern.MatchString(s.TextColor) {
		return fmt.Errorf("%w: text color %q", ErrInvalidGeometry, s.TextColor)
	}
	if !colorPattern.MatchString(s.BackgroundColor) {
		return fmt.Errorf("%w: background color %q", ErrInvalidGeometry, s.BackgroundColor)
	}
	return nil
}

// DefaultStyle matches the widget's initial drawing controls.
var DefaultStyle = Style{Color: "#00b4d8", Weight: 3, FillOpacity: 0.2}

// DefaultTextStyle matches the widget's initial text controls.
var DefaultTextStyle = TextStyle{FontSize: 14, TextColor: "#ffffff", BackgroundColor: "#000000"}

// HighlightColor is the stroke color applied to the selected shape.
const HighlightColor = "#ff0000"
