package parser

import (
	"log/slog"
	"testing"

	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.New(slog.DiscardHandler))
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"float with decimals", "32.00", 32, false},
		{"negative", "-4", -4, false},
		{"fractional rejects", "10.99", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecord(t *testing.T) {
	p := newTestParser()

	e, err := p.ParseRecord([]string{"click", "", "14.5,121.0"})
	require.NoError(t, err)
	assert.Equal(t, ":CLICK:", e.Command)
	assert.Equal(t, []string{"14.5,121.0"}, e.Args)

	e, err = p.ParseRecord([]string{":text:cancel:"})
	require.NoError(t, err)
	assert.Equal(t, ":TEXT:CANCEL:", e.Command)
	assert.Empty(t, e.Args)

	_, err = p.ParseRecord([]string{" ", ""})
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParsePoint(t *testing.T) {
	p := newTestParser()

	at, err := p.ParsePoint([]string{"14.5,121.0"})
	require.NoError(t, err)
	assert.Equal(t, core.LatLng{Lat: 14.5, Lng: 121}, at)

	at, err = p.ParsePoint([]string{"14.5", "121.0"})
	require.NoError(t, err)
	assert.Equal(t, core.LatLng{Lat: 14.5, Lng: 121}, at)

	_, err = p.ParsePoint(nil)
	assert.ErrorIs(t, err, ErrMissingArgument)
	_, err = p.ParsePoint([]string{"14.5"})
	assert.ErrorIs(t, err, ErrMissingArgument)
	_, err = p.ParsePoint([]string{"95,121"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestParseToolAndLayer(t *testing.T) {
	p := newTestParser()

	tool, err := p.ParseTool([]string{"line"})
	require.NoError(t, err)
	assert.Equal(t, core.KindPolyline, tool)
	_, err = p.ParseTool([]string{"hexagon"})
	assert.Error(t, err)
	_, err = p.ParseTool(nil)
	assert.ErrorIs(t, err, ErrMissingArgument)

	layer, err := p.ParseLayer([]string{`"fault"`})
	require.NoError(t, err)
	assert.Equal(t, core.LayerFault, layer)
}

func TestParseID(t *testing.T) {
	p := newTestParser()

	id, err := p.ParseID([]string{"3.0"})
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	for _, bad := range []string{"0", "-2", "x", "1.5"} {
		_, err := p.ParseID([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseMove(t *testing.T) {
	p := newTestParser()

	id, at, err := p.ParseMove([]string{"2", "10.3", "123.9"})
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	assert.Equal(t, core.LatLng{Lat: 10.3, Lng: 123.9}, at)

	_, _, err = p.ParseMove([]string{"2"})
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParseShift(t *testing.T) {
	p := newTestParser()

	id, from, to, err := p.ParseShift([]string{"3", "14.5,121.0", "14.6,121.2"})
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, core.LatLng{Lat: 14.5, Lng: 121.0}, from)
	assert.Equal(t, core.LatLng{Lat: 14.6, Lng: 121.2}, to)

	_, from, to, err = p.ParseShift([]string{"3", "14.5", "121.0", "14.6", "121.2"})
	require.NoError(t, err)
	assert.Equal(t, core.LatLng{Lat: 14.5, Lng: 121.0}, from)
	assert.Equal(t, core.LatLng{Lat: 14.6, Lng: 121.2}, to)

	_, _, _, err = p.ParseShift([]string{"3", "14.5,121.0"})
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParsePath(t *testing.T) {
	p := newTestParser()

	kind, points, err := p.ParsePath([]string{"polygon", "[[14.5,121.0],[14.6,121.1],[14.7,121.0]]"})
	require.NoError(t, err)
	assert.Equal(t, core.KindPolygon, kind)
	assert.Equal(t, []core.LatLng{{Lat: 14.5, Lng: 121.0}, {Lat: 14.6, Lng: 121.1}, {Lat: 14.7, Lng: 121.0}}, points)

	kind, _, err = p.ParsePath([]string{"line", "[[14.5,121.0],[14.6,121.1]]"})
	require.NoError(t, err)
	assert.Equal(t, core.KindPolyline, kind)

	for _, bad := range [][]string{
		{"polygon", "[[14.5,121.0],[14.6,121.1]]"},
		{"circle", "[[14.5,121.0],[14.6,121.1]]"},
		{"line", "not json"},
		{"line", "[[14.5],[14.6,121.1]]"},
		{"line", "[[14.5,121.0],[99,121.1]]"},
	} {
		_, _, err := p.ParsePath(bad)
		assert.Error(t, err, bad)
	}
	_, _, err = p.ParsePath([]string{"line"})
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestParseText(t *testing.T) {
	p := newTestParser()
	assert.Equal(t, "Epicenter", p.ParseText([]string{"Epicenter"}))
	assert.Equal(t, `Taal "main" crater`, p.ParseText([]string{`"Taal ""main"" crater"`}))
	assert.Equal(t, "Lindol sa Batangas", p.ParseText([]string{"Lindol", "sa", "Batangas"}))
	assert.Equal(t, "", p.ParseText(nil))
}

func TestParseStyle(t *testing.T) {
	p := newTestParser()

	change, err := p.ParseStyle([]string{"color=#ff9500", "weight=5", "opacity=0.5"}, core.DefaultStyle, core.DefaultTextStyle)
	require.NoError(t, err)
	assert.True(t, change.StyleSet)
	assert.False(t, change.TextSet)
	assert.Equal(t, core.Style{Color: "#ff9500", Weight: 5, FillOpacity: 0.5}, change.Style)
	assert.Equal(t, core.DefaultTextStyle, change.Text)

	change, err = p.ParseStyle([]string{"fontSize=20", "textColor=#000000", "background=#ffcc00"}, core.DefaultStyle, core.DefaultTextStyle)
	require.NoError(t, err)
	assert.True(t, change.TextSet)
	assert.Equal(t, core.TextStyle{FontSize: 20, TextColor: "#000000", BackgroundColor: "#ffcc00"}, change.Text)
}

func TestParseStyle_Errors(t *testing.T) {
	p := newTestParser()
	tests := [][]string{
		nil,
		{"color"},
		{"shadow=1"},
		{"weight=heavy"},
		{"opacity=2"},
		{"color=red"},
		{"fontSize=0"},
	}
	for _, args := range tests {
		_, err := p.ParseStyle(args, core.DefaultStyle, core.DefaultTextStyle)
		assert.Error(t, err, "%v", args)
	}
}
