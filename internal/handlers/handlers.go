// Package handlers binds dispatcher commands to engine operations.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quakeph/quakemap/internal/app"
	"github.com/quakeph/quakemap/internal/dispatcher"
	"github.com/quakeph/quakemap/internal/parser"
	"github.com/quakeph/quakemap/internal/session"
)

var (
	// ErrNoRefresher is returned by :REFRESH: when feeds are not configured.
	ErrNoRefresher = errors.New("feed refresh is not configured")
	// ErrNoGeolocator is returned by :LOCATE: without a position source.
	ErrNoGeolocator = errors.New("geolocation is not supported")
)

// Refresher triggers a manual feed refresh.
type Refresher interface {
	RefreshNow(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	App        *app.App
	Parser     *parser.Parser
	Refresher  Refresher
	Geolocator app.Geolocator
	ExportDir  string
	Logger     *slog.Logger
	// Timeout bounds :REFRESH: and :LOCATE:. Zero means no limit.
	Timeout time.Duration
}

// Service provides the command handlers.
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ExportDir == "" {
		deps.ExportDir = "."
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers every engine command with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// draw session
	d.Register(":TOOL:", s.handleTool, dispatcher.Logged())
	d.Register(":LAYER:", s.handleLayer, dispatcher.Logged())
	d.Register(":DOWN:", s.handlePointerDown, dispatcher.Logged())
	d.Register(":MOVE:", s.handlePointerMove)
	d.Register(":UP:", s.handlePointerUp, dispatcher.Logged())
	d.Register(":CLICK:", s.handleClick, dispatcher.Logged())
	d.Register(":DBLCLICK:", s.handleDoubleClick, dispatcher.Logged())
	d.Register(":FINISH:", s.handleFinish, dispatcher.Logged())
	d.Register(":TEXT:", s.handleText, dispatcher.Logged())
	d.Register(":TEXT:CANCEL:", s.handleTextCancel, dispatcher.Logged())
	d.Register(":CANCEL:", s.handleCancel, dispatcher.Logged())

	// committed shapes
	d.Register(":SELECT:", s.handleSelect, dispatcher.Logged())
	d.Register(":DESELECT:", s.handleDeselect, dispatcher.Logged())
	d.Register(":DRAG:", s.handleDrag, dispatcher.Logged())
	d.Register(":SHIFT:", s.handleShift, dispatcher.Logged())
	d.Register(":PATH:", s.handlePath, dispatcher.Logged())
	d.Register(":DELETE:", s.handleDelete, dispatcher.Logged())
	d.Register(":DELETE:SELECTED:", s.handleDeleteSelected, dispatcher.Logged())
	d.Register(":CLEAR:", s.handleClear, dispatcher.Logged())
	d.Register(":STYLE:", s.handleStyle, dispatcher.Logged())
	d.Register(":EXPORT:", s.handleExport, dispatcher.Logged())
	d.Register(":LIST:", s.handleList)

	// map and feeds
	d.Register(":LOCATE:", s.handleLocate, dispatcher.Logged())
	d.Register(":QUAKES:", s.handleQuakes)
	d.Register(":FOCUS:", s.handleFocus, dispatcher.Logged())
	// one queued refresh is enough; extra requests are dropped
	d.Register(":REFRESH:", s.handleRefresh, dispatcher.Buffered(1), dispatcher.Logged())
}

func (s *Service) context() (context.Context, context.CancelFunc) {
	if s.deps.Timeout > 0 {
		return context.WithTimeout(context.Background(), s.deps.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (s *Service) handleTool(e dispatcher.Event) (any, error) {
	tool, err := s.deps.Parser.ParseTool(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to arm tool: %w", err)
	}
	if err := s.deps.App.Arm(tool); err != nil {
		return nil, err
	}
	return tool, nil
}

func (s *Service) handleLayer(e dispatcher.Event) (any, error) {
	layer, err := s.deps.Parser.ParseLayer(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to switch layer: %w", err)
	}
	return layer, s.deps.App.SwitchLayer(layer)
}

func (s *Service) handlePointerDown(e dispatcher.Event) (any, error) {
	at, err := s.deps.Parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pointer-down: %w", err)
	}
	return committed(s.deps.App.PointerDown(at))
}

func (s *Service) handlePointerMove(e dispatcher.Event) (any, error) {
	at, err := s.deps.Parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pointer-move: %w", err)
	}
	s.deps.App.PointerMove(at)
	return nil, nil
}

func (s *Service) handlePointerUp(e dispatcher.Event) (any, error) {
	at, err := s.deps.Parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pointer-up: %w", err)
	}
	return committed(s.deps.App.PointerUp(at))
}

func (s *Service) handleClick(e dispatcher.Event) (any, error) {
	at, err := s.deps.Parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse click: %w", err)
	}
	return committed(s.deps.App.Click(at))
}

func (s *Service) handleDoubleClick(e dispatcher.Event) (any, error) {
	at, err := s.deps.Parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse double-click: %w", err)
	}
	return committed(s.deps.App.DoubleClick(at))
}

func (s *Service) handleFinish(dispatcher.Event) (any, error) {
	return committed(s.deps.App.Finish())
}

func (s *Service) handleText(e dispatcher.Event) (any, error) {
	return committed(s.deps.App.SubmitText(s.deps.Parser.ParseText(e.Args)))
}

func (s *Service) handleTextCancel(dispatcher.Event) (any, error) {
	s.deps.App.CancelText()
	return nil, nil
}

func (s *Service) handleCancel(e dispatcher.Event) (any, error) {
	reason := s.deps.Parser.ParseText(e.Args)
	if reason == "" {
		reason = "canceled"
	}
	s.deps.App.Cancel(reason)
	return nil, nil
}

func (s *Service) handleSelect(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to select: %w", err)
	}
	return id, s.deps.App.Select(id)
}

func (s *Service) handleDeselect(dispatcher.Event) (any, error) {
	s.deps.App.DeselectAll()
	return nil, nil
}

func (s *Service) handleDrag(e dispatcher.Event) (any, error) {
	id, at, err := s.deps.Parser.ParseMove(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to move: %w", err)
	}
	shape, err := s.deps.App.Move(id, at)
	if shape.ID == 0 {
		return nil, err
	}
	return shape, err
}

func (s *Service) handleShift(e dispatcher.Event) (any, error) {
	id, from, to, err := s.deps.Parser.ParseShift(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to shift: %w", err)
	}
	shape, err := s.deps.App.Shift(id, from, to)
	if shape.ID == 0 {
		return nil, err
	}
	return shape, err
}

func (s *Service) handlePath(e dispatcher.Event) (any, error) {
	kind, points, err := s.deps.Parser.ParsePath(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse path: %w", err)
	}
	shape, err := s.deps.App.DrawPath(kind, points)
	if shape.ID == 0 {
		return nil, err
	}
	return shape, err
}

func (s *Service) handleDelete(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to delete: %w", err)
	}
	return id, s.deps.App.Delete(id)
}

func (s *Service) handleDeleteSelected(dispatcher.Event) (any, error) {
	return nil, s.deps.App.DeleteSelected()
}

func (s *Service) handleClear(dispatcher.Event) (any, error) {
	return s.deps.App.ClearAll()
}

func (s *Service) handleStyle(e dispatcher.Event) (any, error) {
	style, text := s.deps.App.Style()
	change, err := s.deps.Parser.ParseStyle(e.Args, style, text)
	if err != nil {
		return nil, fmt.Errorf("failed to set style: %w", err)
	}
	if change.StyleSet {
		if err := s.deps.App.SetStyle(change.Style); err != nil {
			return nil, err
		}
	}
	if change.TextSet {
		if err := s.deps.App.SetTextStyle(change.Text); err != nil {
			return nil, err
		}
	}
	return change, nil
}

func (s *Service) handleExport(e dispatcher.Event) (any, error) {
	dir := s.deps.ExportDir
	if len(e.Args) > 0 {
		dir = s.deps.Parser.ParseText(e.Args)
	}
	return s.deps.App.Export(dir)
}

func (s *Service) handleList(dispatcher.Event) (any, error) {
	return s.deps.App.ListEntries(), nil
}

func (s *Service) handleLocate(dispatcher.Event) (any, error) {
	if s.deps.Geolocator == nil {
		return nil, ErrNoGeolocator
	}
	ctx, cancel := s.context()
	defer cancel()
	return s.deps.App.Locate(ctx, s.deps.Geolocator)
}

func (s *Service) handleQuakes(dispatcher.Event) (any, error) {
	return s.deps.App.Quakes(), nil
}

func (s *Service) handleFocus(e dispatcher.Event) (any, error) {
	id := s.deps.Parser.ParseText(e.Args)
	if id == "" {
		return nil, fmt.Errorf("%w: quake id", parser.ErrMissingArgument)
	}
	return s.deps.App.FocusQuake(id)
}

func (s *Service) handleRefresh(dispatcher.Event) (any, error) {
	if s.deps.Refresher == nil {
		return nil, ErrNoRefresher
	}
	ctx, cancel := s.context()
	defer cancel()
	return nil, s.deps.Refresher.RefreshNow(ctx)
}

// committed turns a session result into the handler result: the committed
// shape, or nil when the event did not finish a shape.
func committed(r session.Result, err error) (any, error) {
	if r.Committed {
		return r.Shape, err
	}
	return nil, err
}
