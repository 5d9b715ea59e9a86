package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleValidate(t *testing.T) {
	assert.NoError(t, DefaultStyle.Validate())
	assert.NoError(t, DefaultTextStyle.Validate())

	tests := []struct {
		name  string
		style Style
	}{
		{"bad color", Style{Color: "red", Weight: 1, FillOpacity: 0.2}},
		{"negative weight", Style{Color: "#fff", Weight: -1, FillOpacity: 0.2}},
		{"opacity above one", Style{Color: "#fff", Weight: 1, FillOpacity: 1.5}},
		{"negative opacity", Style{Color: "#fff", Weight: 1, FillOpacity: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.style.Validate(), ErrInvalidGeometry)
		})
	}
}

func TestStyleHighlighted(t *testing.T) {
	s := Style{Color: "#00b4d8", Weight: 3, FillOpacity: 0.2}
	h := s.Highlighted(HighlightColor)
	assert.Equal(t, HighlightColor, h.Color)
	assert.Equal(t, 5, h.Weight)
	assert.Equal(t, 0.2, h.FillOpacity)
	assert.Equal(t, 3, s.Weight, "original untouched")
}

func TestKindHelpers(t *testing.T) {
	k, err := ParseKind("Line")
	assert.NoError(t, err)
	assert.Equal(t, KindPolyline, k)

	_, err = ParseKind("hexagon")
	assert.Error(t, err)

	assert.Equal(t, 2, KindPolyline.MinPoints())
	assert.Equal(t, 3, KindPolygon.MinPoints())
	assert.Equal(t, "Rectangle 1", DisplayName(KindRectangle, 1))
	assert.True(t, KindText.Draggable())
	assert.False(t, KindPolygon.Draggable())
}

func TestLayerDrawable(t *testing.T) {
	assert.True(t, LayerEarthquake.Drawable())
	assert.True(t, LayerFault.Drawable())
	assert.False(t, LayerHazard.Drawable())
	assert.False(t, LayerRisk.Drawable())

	l, err := ParseLayer(" FAULT ")
	assert.NoError(t, err)
	assert.Equal(t, LayerFault, l)
	_, err = ParseLayer("satellite")
	assert.Error(t, err)
}

func TestMagnitudeColor(t *testing.T) {
	assert.Equal(t, "#4cd964", MagnitudeColor(2.9))
	assert.Equal(t, "#ffcc00", MagnitudeColor(3.0))
	assert.Equal(t, "#ff9500", MagnitudeColor(4.5))
	assert.Equal(t, "#ff3b30", MagnitudeColor(5.9))
	assert.Equal(t, "#8b0000", MagnitudeColor(7.1))
	assert.Equal(t, 8.0, MarkerRadius(2))
	assert.Equal(t, 15.0, MarkerRadius(5))
}

func TestQuakeMarker(t *testing.T) {
	q := Quake{Magnitude: 6.1}
	m := q.Marker(false)
	assert.Equal(t, "#8b0000", m.Fill)
	assert.InDelta(t, 18.3, m.Radius, 1e-9)
	assert.Equal(t, 1, m.Weight)
	assert.Equal(t, 0.7, m.FillOpacity)

	hl := q.Marker(true)
	assert.Equal(t, 3, hl.Weight)
	assert.Equal(t, 0.9, hl.FillOpacity)
	assert.Equal(t, m.Fill, hl.Fill)
}

func TestLegend(t *testing.T) {
	quakes := Legend(LayerEarthquake)
	require.Len(t, quakes, 5)
	assert.Equal(t, "#4cd964", quakes[0].Color)
	assert.Equal(t, "#8b0000", quakes[4].Color)

	faults := Legend(LayerFault)
	require.Len(t, faults, 1)
	assert.Equal(t, FaultColor, faults[0].Color)

	for _, item := range Legend(LayerRisk) {
		assert.Empty(t, item.Color)
	}
	assert.Nil(t, Legend("satellite"))
}
