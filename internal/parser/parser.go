// Package parser turns command arguments from the map surface into engine
// values. It is pure: no engine state, no I/O.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/quakeph/quakemap/internal/dispatcher"
	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/internal/util"
	"github.com/quakeph/quakemap/pkg/core"
)

// ErrMissingArgument is returned when a command has too few arguments.
var ErrMissingArgument = errors.New("missing argument")

// parseIntFromFloat parses a string that may be an integer ("3") or a float
// ("3.0") into int64. Browser callers serialize every number as a float.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// Parser provides pure []string -> engine value conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseRecord builds an event from one script line split into fields. The
// first field is the command; empty fields are skipped.
func (p *Parser) ParseRecord(fields []string) (dispatcher.Event, error) {
	var args []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			args = append(args, f)
		}
	}
	if len(args) == 0 {
		return dispatcher.Event{}, fmt.Errorf("%w: command", ErrMissingArgument)
	}
	cmd := NormalizeCommand(args[0])
	p.logger.Debug("Parsed command", "command", cmd, "args", len(args)-1)
	return dispatcher.Event{Command: cmd, Args: args[1:]}, nil
}

// NormalizeCommand upper-cases a command and wraps it in colons, so "click"
// and ":CLICK:" are the same command.
func NormalizeCommand(s string) string {
	s = strings.ToUpper(strings.Trim(strings.TrimSpace(s), ":"))
	return ":" + s + ":"
}

func arg(args []string, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return util.FixEscapeQuotes(util.TrimQuotes(args[i])), nil
}

// ParsePoint reads a coordinate given either as "lat,lng" or as two
// separate "lat" "lng" arguments.
func (p *Parser) ParsePoint(args []string) (core.LatLng, error) {
	return parsePointAt(args, 0)
}

func parsePointAt(args []string, i int) (core.LatLng, error) {
	first, err := arg(args, i, "coordinates")
	if err != nil {
		return core.LatLng{}, err
	}
	if strings.Contains(first, ",") {
		return geo.LatLngFromString(first)
	}
	second, err := arg(args, i+1, "longitude")
	if err != nil {
		return core.LatLng{}, err
	}
	return geo.LatLngFromString(first + "," + second)
}

// ParseTool reads a tool name such as "rectangle" or "line".
func (p *Parser) ParseTool(args []string) (core.Kind, error) {
	s, err := arg(args, 0, "tool")
	if err != nil {
		return "", err
	}
	return core.ParseKind(s)
}

// ParseLayer reads a layer id.
func (p *Parser) ParseLayer(args []string) (core.Layer, error) {
	s, err := arg(args, 0, "layer")
	if err != nil {
		return "", err
	}
	return core.ParseLayer(s)
}

// ParseID reads a positive shape id.
func (p *Parser) ParseID(args []string) (int, error) {
	s, err := arg(args, 0, "id")
	if err != nil {
		return 0, err
	}
	id, err := parseIntFromFloat(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id %d", id)
	}
	return int(id), nil
}

// ParseMove reads a shape id followed by its new position.
func (p *Parser) ParseMove(args []string) (int, core.LatLng, error) {
	id, err := p.ParseID(args)
	if err != nil {
		return 0, core.LatLng{}, err
	}
	at, err := parsePointAt(args, 1)
	if err != nil {
		return 0, core.LatLng{}, err
	}
	return id, at, nil
}

// ParseShift reads a shape id followed by the pointer positions a drag
// started and ended at.
func (p *Parser) ParseShift(args []string) (int, core.LatLng, core.LatLng, error) {
	id, err := p.ParseID(args)
	if err != nil {
		return 0, core.LatLng{}, core.LatLng{}, err
	}
	from, err := parsePointAt(args, 1)
	if err != nil {
		return 0, core.LatLng{}, core.LatLng{}, err
	}
	next := 2
	if first, _ := arg(args, 1, "from"); !strings.Contains(first, ",") {
		next = 3
	}
	to, err := parsePointAt(args, next)
	if err != nil {
		return 0, core.LatLng{}, core.LatLng{}, err
	}
	return id, from, to, nil
}

// ParsePath reads a line or polygon tool followed by its points as a JSON
// array, e.g. "polygon [[14.5,121.0],[14.6,121.1],[14.7,121.0]]".
func (p *Parser) ParsePath(args []string) (core.Kind, []core.LatLng, error) {
	kind, err := p.ParseTool(args)
	if err != nil {
		return "", nil, err
	}
	if kind != core.KindPolyline && kind != core.KindPolygon {
		return "", nil, fmt.Errorf("%s is not a path tool", kind)
	}
	raw, err := arg(args, 1, "path")
	if err != nil {
		return "", nil, err
	}
	points, err := geo.ParsePath(raw, kind.MinPoints())
	if err != nil {
		return "", nil, err
	}
	return kind, points, nil
}

// ParseText joins the arguments back into the label text.
func (p *Parser) ParseText(args []string) string {
	parts := make([]string, len(args))
	for i := range args {
		parts[i], _ = arg(args, i, "text")
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
