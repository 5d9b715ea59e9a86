// Package session turns a selected tool plus pointer events into a finished
// shape or a canceled session.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/pkg/core"
)

// ErrLayerNotDrawable is returned when a tool is armed on a layer that does
// not allow drawing.
var ErrLayerNotDrawable = errors.New("drawing is not available on this layer")

// ErrUnknownTool is returned when arming a tool that is not a shape kind.
var ErrUnknownTool = errors.New("unknown drawing tool")

// PreviewRenderer shows the provisional shape while a session is active.
type PreviewRenderer interface {
	ShowPreview(g core.Geometry)
	ClearPreview()
}

// TextPrompter asks the user for label text. The answer arrives later as a
// TextSubmitted or TextCanceled event.
type TextPrompter interface {
	RequestText(anchor core.LatLng)
}

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Warn(msg string)
	Error(msg string)
}

// Committer stores a finalized geometry as a shape. A non-zero id on the
// returned shape means it was kept even if err is non-nil.
type Committer interface {
	Commit(g core.Geometry) (core.Shape, error)
}

// Options configures a Machine.
type Options struct {
	Layer            core.Layer
	TextStyle        core.TextStyle
	RejectDegenerate bool
	Logger           *slog.Logger
	NewID            func() uuid.UUID
}

// Result describes what an event did.
type Result struct {
	Committed bool
	Shape     core.Shape
}

// Machine is the draw session state machine. It is not safe for concurrent use.
type Machine struct {
	state     State
	cursor    core.LatLng
	layer     core.Layer
	textStyle core.TextStyle
	reject    bool

	preview  PreviewRenderer
	prompter TextPrompter
	notifier Notifier
	commit   Committer
	log      *slog.Logger
	newID    func() uuid.UUID
}

// New creates an idle machine.
func New(commit Committer, preview PreviewRenderer, prompter TextPrompter, notifier Notifier, opts Options) *Machine {
	m := &Machine{
		layer:     opts.Layer,
		textStyle: opts.TextStyle,
		reject:    opts.RejectDegenerate,
		preview:   preview,
		prompter:  prompter,
		notifier:  notifier,
		commit:    commit,
		log:       opts.Logger,
		newID:     opts.NewID,
	}
	if m.layer == "" {
		m.layer = core.LayerEarthquake
	}
	if m.textStyle == (core.TextStyle{}) {
		m.textStyle = core.DefaultTextStyle
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.newID == nil {
		m.newID = uuid.New
	}
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state.clone()
}

// Layer returns the active map layer as last reported.
func (m *Machine) Layer() core.Layer {
	return m.layer
}

// SetTextStyle changes the style used for labels committed from now on.
func (m *Machine) SetTextStyle(ts core.TextStyle) {
	m.textStyle = ts
}

// Handle applies one event. Events that mean nothing in the current state
// are ignored and return a zero Result.
func (m *Machine) Handle(ev Event) (Result, error) {
	switch ev := ev.(type) {
	case Arm:
		return Result{}, m.arm(ev.Tool)
	case PointerDown:
		return m.pointerDown(ev.At)
	case PointerMove:
		m.pointerMove(ev.At)
		return Result{}, nil
	case PointerUp:
		return m.pointerUp(ev.At)
	case Click:
		m.click(ev.At)
		return Result{}, nil
	case DoubleClick:
		return m.doubleClick()
	case Finish:
		return m.finish()
	case TextSubmitted:
		return m.submitText(ev.Text)
	case TextCanceled:
		if m.state.Phase == AwaitingTextInput {
			m.reset("text canceled")
		}
		return Result{}, nil
	case Cancel:
		m.Cancel(ev.Reason)
		return Result{}, nil
	case LayerChanged:
		m.layer = ev.Layer
		m.Cancel("layer changed")
		return Result{}, nil
	default:
		return Result{}, fmt.Errorf("unsupported session event %T", ev)
	}
}

// Cancel discards any provisional preview and points. It is safe to call in
// any state and more than once.
func (m *Machine) Cancel(reason string) {
	if !m.state.Active() {
		return
	}
	m.reset(reason)
}

func (m *Machine) reset(reason string) {
	if m.state.Active() {
		m.log.Debug("Draw session ended", "session", m.state.ID, "state", m.state.String(), "reason", reason)
	}
	m.state = State{}
	m.cursor = core.LatLng{}
	m.preview.ClearPreview()
}

func (m *Machine) arm(name core.Kind) error {
	tool, err := core.ParseKind(string(name))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	// only one session at a time
	m.Cancel("tool switched")

	if !m.layer.Drawable() {
		m.notifier.Warn("Drawing tools are only available on the Earthquake and Fault Lines layers")
		return fmt.Errorf("%w: %s", ErrLayerNotDrawable, m.layer)
	}

	m.state = State{Phase: Armed, Tool: tool, ID: m.newID()}
	m.log.Debug("Draw session armed", "session", m.state.ID, "tool", tool, "layer", m.layer)
	return nil
}

func (m *Machine) pointerDown(at core.LatLng) (Result, error) {
	if m.state.Phase != Armed {
		return Result{}, nil
	}
	switch m.state.Tool {
	case core.KindMarker:
		return m.finalize(func() (core.Geometry, error) { return core.NewMarker(at) })
	case core.KindRectangle, core.KindCircle:
		m.state.Phase = Dragging
		m.state.Anchor = at
		m.cursor = at
		m.showPreview()
	}
	return Result{}, nil
}

func (m *Machine) pointerMove(at core.LatLng) {
	switch m.state.Phase {
	case Dragging, PathBuilding:
		m.cursor = at
		m.showPreview()
	}
}

func (m *Machine) pointerUp(at core.LatLng) (Result, error) {
	if m.state.Phase != Dragging {
		return Result{}, nil
	}
	anchor := m.state.Anchor
	switch m.state.Tool {
	case core.KindRectangle:
		return m.finalize(func() (core.Geometry, error) { return core.NewRectangle(anchor, at) })
	case core.KindCircle:
		return m.finalize(func() (core.Geometry, error) { return core.NewCircle(anchor, geo.Distance(anchor, at)) })
	}
	return Result{}, nil
}

func (m *Machine) click(at core.LatLng) {
	switch m.state.Phase {
	case Armed:
		switch m.state.Tool {
		case core.KindPolyline, core.KindPolygon:
			m.state.Phase = PathBuilding
			m.state.Points = []core.LatLng{at}
			m.cursor = at
			m.showPreview()
		case core.KindText:
			m.state.Phase = AwaitingTextInput
			m.state.Anchor = at
			m.prompter.RequestText(at)
		}
	case PathBuilding:
		// the clicks that make up a double-click land on the same spot
		if last := m.state.Points[len(m.state.Points)-1]; last == at {
			return
		}
		m.state.Points = append(m.state.Points, at)
		m.cursor = at
		m.showPreview()
	}
}

func (m *Machine) doubleClick() (Result, error) {
	if m.state.Phase != PathBuilding {
		return Result{}, nil
	}
	if len(m.state.Points) < m.state.Tool.MinPoints() {
		return Result{}, nil
	}
	return m.finalizePath()
}

func (m *Machine) finish() (Result, error) {
	if m.state.Phase != PathBuilding {
		return Result{}, nil
	}
	return m.finalizePath()
}

func (m *Machine) finalizePath() (Result, error) {
	points := m.state.Points
	if m.state.Tool == core.KindPolygon {
		return m.finalize(func() (core.Geometry, error) { return core.NewPolygon(points) })
	}
	return m.finalize(func() (core.Geometry, error) { return core.NewPolyline(points) })
}

func (m *Machine) submitText(text string) (Result, error) {
	if m.state.Phase != AwaitingTextInput {
		return Result{}, nil
	}
	if strings.TrimSpace(text) == "" {
		m.reset("blank text")
		return Result{}, nil
	}
	anchor, style := m.state.Anchor, m.textStyle
	return m.finalize(func() (core.Geometry, error) { return core.NewTextLabel(anchor, text, style) })
}

// finalize builds the geometry, commits it and always returns to Idle.
func (m *Machine) finalize(build func() (core.Geometry, error)) (Result, error) {
	sessionID, tool := m.state.ID, m.state.Tool
	defer m.reset("finalized")

	g, err := build()
	if err == nil && m.reject && core.Degenerate(g) {
		err = fmt.Errorf("%w: %s has no extent", core.ErrInvalidGeometry, tool)
	}
	if err != nil {
		m.log.Warn("Draw session discarded", "session", sessionID, "tool", tool, "error", err)
		m.notifier.Error(fmt.Sprintf("Could not finish %s: %v", strings.ToLower(tool.Title()), err))
		return Result{}, err
	}

	shape, err := m.commit.Commit(g)
	if err != nil {
		m.notifier.Error(fmt.Sprintf("Could not save %s: %v", strings.ToLower(tool.Title()), err))
	}
	if shape.ID == 0 {
		return Result{}, err
	}
	m.log.Info("Shape committed", "session", sessionID, "id", shape.ID, "name", shape.Name)
	return Result{Committed: true, Shape: shape}, err
}

func (m *Machine) showPreview() {
	if g, ok := Preview(m.state, m.cursor); ok {
		m.preview.ShowPreview(g)
	}
}
