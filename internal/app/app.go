// Package app wires the annotation engine together: the store, the draw
// session, the selection controller, notices and the map surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/quakeph/quakemap/internal/annotation"
	"github.com/quakeph/quakemap/internal/notify"
	"github.com/quakeph/quakemap/internal/selection"
	"github.com/quakeph/quakemap/internal/session"
	"github.com/quakeph/quakemap/pkg/core"
)

// DefaultHitTolerance is the click distance, in meters, that still hits a
// marker, label or line.
const DefaultHitTolerance = 50

// Surface is the map widget the engine draws on.
type Surface interface {
	session.PreviewRenderer
	session.TextPrompter
	selection.StyleRenderer
	selection.ListView
	notify.Sink

	DrawShape(s core.Shape)
	RemoveShape(id int)
	RefreshList(entries []core.ListEntry)
	Confirm(prompt string) bool
	FlyTo(at core.LatLng, zoom int)
	ShowQuakes(quakes []core.Quake)
	ShowFaults(faults []core.FaultLine)
	ShowLegend(items []core.LegendItem)
	HighlightQuake(id string, on bool)
	SetLastUpdate(t time.Time)
}

// Geolocator finds the user's position.
type Geolocator interface {
	Locate(ctx context.Context) (core.LatLng, error)
}

// Options configures an App. Zero values fall back to the package defaults.
type Options struct {
	Layer            core.Layer
	Style            core.Style
	TextStyle        core.TextStyle
	HighlightColor   string
	HitTolerance     float64
	RejectDegenerate bool
	NoticeLimit      int
	Logger           *slog.Logger
	Now              func() time.Time
	NewSessionID     func() uuid.UUID
	// QuakeHighlight is how long a focused quake marker stays highlighted.
	QuakeHighlight time.Duration
}

// DefaultQuakeHighlight is the highlight duration of a focused quake marker.
const DefaultQuakeHighlight = 3 * time.Second

// App is the engine context. All methods are safe for concurrent use; engine
// calls are serialized.
type App struct {
	mu sync.Mutex

	store     *annotation.Store
	surface   Surface
	notices   *notify.Notices
	selection *selection.Controller
	session   *session.Machine

	layer     core.Layer
	style     core.Style
	textStyle core.TextStyle
	tolerance float64
	now       func() time.Time
	log       *slog.Logger

	quakes     []core.Quake
	quakeGen   uint64
	faults     []core.FaultLine
	lastUpdate time.Time

	highlightFor time.Duration
	lit          string
	unlight      *time.Timer

	// read by the log handler, which may run while mu is held
	logLayer   atomic.Value
	logSession atomic.Value
}

// New creates the engine context on top of a store and a surface.
func New(store *annotation.Store, surface Surface, opts Options) *App {
	a := &App{
		store:     store,
		surface:   surface,
		layer:     opts.Layer,
		style:     opts.Style,
		textStyle: opts.TextStyle,
		tolerance: opts.HitTolerance,
		now:       opts.Now,
		log:       opts.Logger,

		highlightFor: opts.QuakeHighlight,
	}
	if a.layer == "" {
		a.layer = core.LayerEarthquake
	}
	if a.style == (core.Style{}) {
		a.style = core.DefaultStyle
	}
	if a.textStyle == (core.TextStyle{}) {
		a.textStyle = core.DefaultTextStyle
	}
	if a.tolerance <= 0 {
		a.tolerance = DefaultHitTolerance
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.highlightFor <= 0 {
		a.highlightFor = DefaultQuakeHighlight
	}

	a.notices = notify.New(opts.NoticeLimit, surface, a.log)
	a.selection = selection.New(store, surface, surface, opts.HighlightColor)
	a.session = session.New(committer{a}, surface, surface, a.notices, session.Options{
		Layer:            a.layer,
		TextStyle:        a.textStyle,
		RejectDegenerate: opts.RejectDegenerate,
		Logger:           a.log,
		NewID:            opts.NewSessionID,
	})
	surface.ShowLegend(core.Legend(a.layer))
	a.publish()
	return a
}

// Load rehydrates the store and draws every persisted shape. A failed load
// leaves the engine running with an empty collection.
func (a *App) Load() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.store.Load()
	var recErr *annotation.RecordError
	switch {
	case errors.As(err, &recErr):
		a.log.Warn("Some annotations could not be loaded", "skipped", len(recErr.Skipped), "error", err)
		a.notices.Warn(fmt.Sprintf("%d saved drawing(s) could not be loaded", len(recErr.Skipped)))
	case err != nil:
		a.log.Error("Failed to load annotations", "error", err)
		a.notices.Error("Saved drawings could not be loaded")
	}
	for shape := range a.store.List() {
		a.surface.DrawShape(shape)
	}
	a.refreshList()
	return err
}

// Notices returns the notice history.
func (a *App) Notices() *notify.Notices {
	return a.notices
}

// Layer returns the active map layer.
func (a *App) Layer() core.Layer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.layer
}

// Session returns a snapshot of the draw session.
func (a *App) Session() session.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.State()
}

// Selected returns the selected shape id.
func (a *App) Selected() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selection.Selected()
}

// Style returns the style given to new shapes.
func (a *App) Style() (core.Style, core.TextStyle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.style, a.textStyle
}

// LogAttrs returns the layer and draw session for log records. It never
// blocks on the engine lock.
func (a *App) LogAttrs() []slog.Attr {
	layer, _ := a.logLayer.Load().(string)
	state, _ := a.logSession.Load().(string)
	return []slog.Attr{slog.String("layer", layer), slog.String("draw", state)}
}

func (a *App) publish() {
	a.logLayer.Store(string(a.layer))
	a.logSession.Store(a.session.State().String())
}

// committer lets the session store shapes while the engine lock is held.
type committer struct{ a *App }

// Commit adds the geometry with the current style, draws it, selects it and
// refreshes the side list.
func (c committer) Commit(g core.Geometry) (core.Shape, error) {
	a := c.a
	shape, err := a.store.Add(core.Shape{Geometry: g, Style: a.style})
	if shape.ID == 0 {
		return shape, err
	}
	if err != nil && !errors.Is(err, core.ErrPersistence) {
		return shape, err
	}
	a.surface.DrawShape(shape)
	a.refreshList()
	if selErr := a.selection.Select(shape.ID); selErr != nil {
		a.log.Warn("Failed to select new shape", "id", shape.ID, "error", selErr)
	}
	return shape, err
}

func (a *App) refreshList() {
	entries := make([]core.ListEntry, 0, a.store.Len())
	for shape := range a.store.List() {
		entries = append(entries, shape.Entry())
	}
	a.surface.RefreshList(entries)
}
