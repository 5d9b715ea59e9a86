package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quakeph/quakemap/pkg/core"
)

// StyleChange is the result of a :STYLE: command applied on top of the
// current styles.
type StyleChange struct {
	Style    core.Style
	Text     core.TextStyle
	StyleSet bool
	TextSet  bool
}

// ParseStyle applies key=value arguments to the current styles. Keys:
// color, weight, opacity, fontSize, textColor, background.
func (p *Parser) ParseStyle(args []string, style core.Style, text core.TextStyle) (StyleChange, error) {
	change := StyleChange{Style: style, Text: text}
	if len(args) == 0 {
		return change, fmt.Errorf("%w: style", ErrMissingArgument)
	}

	for i := range args {
		kv, _ := arg(args, i, "style")
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return change, fmt.Errorf("style argument %q is not key=value", kv)
		}
		switch strings.ToLower(key) {
		case "color":
			change.Style.Color = value
			change.StyleSet = true
		case "weight", "width":
			n, err := parseIntFromFloat(value)
			if err != nil {
				return change, fmt.Errorf("invalid weight %q: %w", value, err)
			}
			change.Style.Weight = int(n)
			change.StyleSet = true
		case "opacity", "fillopacity":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return change, fmt.Errorf("invalid opacity %q: %w", value, err)
			}
			change.Style.FillOpacity = f
			change.StyleSet = true
		case "fontsize", "size":
			n, err := parseIntFromFloat(value)
			if err != nil {
				return change, fmt.Errorf("invalid font size %q: %w", value, err)
			}
			change.Text.FontSize = int(n)
			change.TextSet = true
		case "textcolor":
			change.Text.TextColor = value
			change.TextSet = true
		case "background", "backgroundcolor":
			change.Text.BackgroundColor = value
			change.TextSet = true
		default:
			return change, fmt.Errorf("unknown style key %q", key)
		}
	}

	if change.StyleSet {
		if err := change.Style.Validate(); err != nil {
			return change, err
		}
	}
	if change.TextSet {
		if err := change.Text.Validate(); err != nil {
			return change, err
		}
	}
	return change, nil
}
