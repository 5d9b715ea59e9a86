package app

import (
	"fmt"

	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/internal/session"
	"github.com/quakeph/quakemap/pkg/core"
)

func (a *App) handle(ev session.Event) (session.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.publish()
	return a.session.Handle(ev)
}

// Arm selects a drawing tool, canceling any session in progress.
func (a *App) Arm(tool core.Kind) error {
	_, err := a.handle(session.Arm{Tool: tool})
	return err
}

func (a *App) PointerDown(at core.LatLng) (session.Result, error) {
	return a.handle(session.PointerDown{At: at})
}

func (a *App) PointerMove(at core.LatLng) {
	_, _ = a.handle(session.PointerMove{At: at})
}

func (a *App) PointerUp(at core.LatLng) (session.Result, error) {
	return a.handle(session.PointerUp{At: at})
}

// Click feeds an active draw session. Without one it selects the topmost
// shape under the pointer, or clears the selection on empty map.
func (a *App) Click(at core.LatLng) (session.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.publish()

	if a.session.State().Active() {
		return a.session.Handle(session.Click{At: at})
	}
	if shape, ok := geo.HitTest(a.store.List(), at, a.tolerance); ok {
		return session.Result{}, a.selection.Select(shape.ID)
	}
	a.selection.DeselectAll()
	return session.Result{}, nil
}

func (a *App) DoubleClick(at core.LatLng) (session.Result, error) {
	return a.handle(session.DoubleClick{At: at})
}

// Finish completes the path being built.
func (a *App) Finish() (session.Result, error) {
	return a.handle(session.Finish{})
}

// SubmitText answers the text prompt.
func (a *App) SubmitText(text string) (session.Result, error) {
	return a.handle(session.TextSubmitted{Text: text})
}

func (a *App) CancelText() {
	_, _ = a.handle(session.TextCanceled{})
}

// Cancel aborts the draw session, if any.
func (a *App) Cancel(reason string) {
	_, _ = a.handle(session.Cancel{Reason: reason})
}

// SwitchLayer changes the map mode. Any draw session is canceled.
func (a *App) SwitchLayer(name core.Layer) error {
	layer, err := core.ParseLayer(string(name))
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.publish()

	if a.layer == layer {
		return nil
	}
	a.log.Info("Layer switched", "from", a.layer, "to", layer)
	a.layer = layer
	a.surface.ShowLegend(core.Legend(layer))
	if _, err := a.session.Handle(session.LayerChanged{Layer: layer}); err != nil {
		return fmt.Errorf("switch layer: %w", err)
	}
	return nil
}
