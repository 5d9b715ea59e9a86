package handlers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/quakeph/quakemap/internal/annotation"
	"github.com/quakeph/quakemap/internal/app"
	"github.com/quakeph/quakemap/internal/dispatcher"
	"github.com/quakeph/quakemap/internal/parser"
	"github.com/quakeph/quakemap/internal/storage/memory"
	"github.com/quakeph/quakemap/internal/surface"
	"github.com/quakeph/quakemap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct{ calls atomic.Int32 }

func (r *countingRefresher) RefreshNow(ctx context.Context) error {
	r.calls.Add(1)
	return ctx.Err()
}

type testEnv struct {
	d         *dispatcher.Dispatcher
	app       *app.App
	store     *annotation.Store
	surface   *surface.Headless
	refresher *countingRefresher
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	store := annotation.NewStore(memory.New(), annotation.Options{Logger: log})
	sfc := surface.New(true)
	a := app.New(store, sfc, app.Options{Logger: log})

	d, err := dispatcher.New(log)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	r := &countingRefresher{}
	NewService(Dependencies{
		App:        a,
		Refresher:  r,
		Geolocator: surface.FixedLocator{At: core.LatLng{Lat: 14.6, Lng: 121}},
		ExportDir:  t.TempDir(),
		Logger:     log,
	}).RegisterHandlers(d)

	return testEnv{d: d, app: a, store: store, surface: sfc, refresher: r}
}

func (env testEnv) run(t *testing.T, command string, args ...string) any {
	t.Helper()
	result, err := env.d.Dispatch(dispatcher.Event{Command: command, Args: args})
	require.NoError(t, err, command)
	return result
}

func TestRegisterHandlers_AllCommands(t *testing.T) {
	env := newTestEnv(t)
	for _, cmd := range []string{
		":TOOL:", ":LAYER:", ":DOWN:", ":MOVE:", ":UP:", ":CLICK:", ":DBLCLICK:",
		":FINISH:", ":TEXT:", ":TEXT:CANCEL:", ":CANCEL:", ":SELECT:", ":DESELECT:",
		":DRAG:", ":SHIFT:", ":PATH:", ":DELETE:", ":DELETE:SELECTED:", ":CLEAR:", ":STYLE:", ":EXPORT:",
		":LIST:", ":LOCATE:", ":QUAKES:", ":FOCUS:", ":REFRESH:",
	} {
		assert.True(t, env.d.HasHandler(cmd), cmd)
	}
}

func TestRectangleCommands(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, core.KindRectangle, env.run(t, ":TOOL:", "rectangle"))
	assert.Nil(t, env.run(t, ":DOWN:", "14.5,121.0"))
	env.run(t, ":MOVE:", "14.6", "121.1")
	result := env.run(t, ":UP:", "14.6,121.1")

	shape, ok := result.(core.Shape)
	require.True(t, ok)
	assert.Equal(t, "Rectangle 1", shape.Name)
	assert.Equal(t, shape.ID, env.surface.Active())
}

func TestEpicenterCommands(t *testing.T) {
	env := newTestEnv(t)

	env.run(t, ":TOOL:", "text")
	env.run(t, ":CLICK:", "14.5,121")
	shape := env.run(t, ":TEXT:", "Epicenter").(core.Shape)
	assert.Equal(t, "Epicenter", shape.Geometry.(core.TextLabel).Text)

	entries := env.run(t, ":LIST:").([]core.ListEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, "Text 1", entries[0].Name)

	env.run(t, ":DELETE:", "1")
	assert.Zero(t, env.store.Len())
	assert.Empty(t, env.run(t, ":LIST:"))
}

func TestPolylineCommands(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, ":TOOL:", "line")
	env.run(t, ":CLICK:", "14.0,121.0")
	env.run(t, ":CLICK:", "14.1,121.1")
	env.run(t, ":CLICK:", "14.2,121.0")
	shape := env.run(t, ":FINISH:").(core.Shape)
	assert.Len(t, shape.Geometry.(core.Polyline).Points, 3)
}

func TestLayerCommandRejectsDrawing(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, ":LAYER:", "risk")
	_, err := env.d.Dispatch(dispatcher.Event{Command: ":TOOL:", Args: []string{"marker"}})
	assert.Error(t, err)
	assert.Equal(t, core.LayerRisk, env.app.Layer())
}

func TestStyleDragAndDeleteSelected(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, ":TOOL:", "marker")
	env.run(t, ":DOWN:", "14.5,121")

	env.run(t, ":STYLE:", "color=#ff3b30", "weight=4")
	stored, _ := env.store.Get(1)
	assert.Equal(t, "#ff3b30", stored.Style.Color)
	assert.Equal(t, 4, stored.Style.Weight)

	moved := env.run(t, ":DRAG:", "1", "14.6,121.1").(core.Shape)
	assert.Equal(t, core.Marker{At: core.LatLng{Lat: 14.6, Lng: 121.1}}, moved.Geometry)

	env.run(t, ":DELETE:SELECTED:")
	assert.Zero(t, env.store.Len())
}

func TestShiftAndPathCommands(t *testing.T) {
	env := newTestEnv(t)
	shape := env.run(t, ":PATH:", "polygon", "[[14.0,121.0],[14.0,121.2],[14.2,121.2]]").(core.Shape)
	assert.Equal(t, core.KindPolygon, shape.Kind())
	assert.Equal(t, 1, env.store.Len())

	moved := env.run(t, ":SHIFT:", "1", "14.0,121.0", "14.5,121.5").(core.Shape)
	ring := moved.Geometry.(core.Polygon).Ring
	assert.InDelta(t, 14.5, ring[0].Lat, 1e-9)
	assert.InDelta(t, 121.7, ring[2].Lng, 1e-9)

	_, err := env.d.Dispatch(dispatcher.Event{Command: ":PATH:", Args: []string{"marker", "[[14,121]]"}})
	assert.Error(t, err)
	_, err = env.d.Dispatch(dispatcher.Event{Command: ":SHIFT:", Args: []string{"9", "14,121", "15,121"}})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestClearAndExport(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, ":TOOL:", "circle")
	env.run(t, ":DOWN:", "14.5,121")
	env.run(t, ":UP:", "14.51,121")

	path, ok := env.run(t, ":EXPORT:").(string)
	require.True(t, ok)
	assert.FileExists(t, path)

	assert.Equal(t, true, env.run(t, ":CLEAR:"))
	assert.Zero(t, env.store.Len())
}

func TestParseErrors(t *testing.T) {
	env := newTestEnv(t)
	for _, e := range []dispatcher.Event{
		{Command: ":TOOL:", Args: []string{"hexagon"}},
		{Command: ":CLICK:"},
		{Command: ":DOWN:", Args: []string{"north"}},
		{Command: ":SELECT:", Args: []string{"abc"}},
		{Command: ":STYLE:", Args: []string{"color=blue"}},
		{Command: ":FOCUS:"},
	} {
		_, err := env.d.Dispatch(e)
		assert.Error(t, err, e.Command)
	}

	_, err := env.d.Dispatch(dispatcher.Event{Command: ":SELECT:", Args: []string{"7"}})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = env.d.Dispatch(dispatcher.Event{Command: ":TOOL:"})
	assert.ErrorIs(t, err, parser.ErrMissingArgument)
}

func TestLocateAndQuakes(t *testing.T) {
	env := newTestEnv(t)
	at := env.run(t, ":LOCATE:").(core.LatLng)
	assert.Equal(t, core.LatLng{Lat: 14.6, Lng: 121}, at)

	env.app.ApplyQuakes(1, []core.Quake{
		{ID: "us7000a", Magnitude: 4.1},
		{ID: "us7000b", Magnitude: 6.2, At: core.LatLng{Lat: 9.8, Lng: 126.3}},
	})
	quakes := env.run(t, ":QUAKES:").([]core.Quake)
	require.Len(t, quakes, 2)
	assert.Equal(t, "us7000b", quakes[0].ID)

	q := env.run(t, ":FOCUS:", "us7000b").(core.Quake)
	assert.Equal(t, 6.2, q.Magnitude)
	assert.Equal(t, q.At, env.surface.View().Center)
}

func TestRefreshIsQueued(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, "queued", env.run(t, ":REFRESH:"))
	env.d.Close()
	assert.Equal(t, int32(1), env.refresher.calls.Load())
}

func TestMissingCollaborators(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	a := app.New(annotation.NewStore(memory.New(), annotation.Options{}), surface.New(true), app.Options{Logger: log})
	s := NewService(Dependencies{App: a})

	_, err := s.handleRefresh(dispatcher.Event{})
	assert.ErrorIs(t, err, ErrNoRefresher)
	_, err = s.handleLocate(dispatcher.Event{})
	assert.ErrorIs(t, err, ErrNoGeolocator)
}
