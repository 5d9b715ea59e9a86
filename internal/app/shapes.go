package app

import (
	"errors"
	"fmt"

	"github.com/quakeph/quakemap/internal/annotation"
	"github.com/quakeph/quakemap/internal/geo"
	"github.com/quakeph/quakemap/internal/session"
	"github.com/quakeph/quakemap/internal/util"
	"github.com/quakeph/quakemap/pkg/core"
)

// Select highlights a committed shape, as when its list entry is clicked,
// and brings it into view.
func (a *App) Select(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.selection.Select(id); err != nil {
		a.notices.Warn(fmt.Sprintf("Drawing %d no longer exists", id))
		return err
	}
	if shape, ok := a.store.Get(id); ok {
		zoom := maxFocusZoom
		if b, ok := geo.GeometryBounds(shape.Geometry); ok {
			zoom = geo.FitZoom(b, minFocusZoom, maxFocusZoom)
		}
		a.surface.FlyTo(shape.Geometry.Anchor(), zoom)
	}
	return nil
}

// DeselectAll clears the selection.
func (a *App) DeselectAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selection.DeselectAll()
}

// Delete removes a shape from the store, the map and the list.
func (a *App) Delete(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.delete(id)
}

// DeleteSelected deletes the selected shape.
func (a *App) DeleteSelected() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.selection.Selected()
	if !ok {
		a.notices.Info("Select a drawing to delete")
		return fmt.Errorf("%w: nothing selected", core.ErrNotFound)
	}
	return a.delete(id)
}

func (a *App) delete(id int) error {
	shape, _ := a.store.Get(id)
	removed, err := a.store.Remove(id)
	if !removed {
		return fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	a.surface.RemoveShape(id)
	a.selection.Release(id)
	a.refreshList()
	if err != nil {
		a.notices.Error("Drawing deleted but could not be saved")
		return err
	}
	a.notices.Info(fmt.Sprintf("Deleted %s", shape.Name))
	return nil
}

// ClearAll removes every shape after the user confirms. It reports whether
// anything was cleared.
func (a *App) ClearAll() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store.Len() == 0 {
		a.notices.Info("No drawings to clear")
		return false, nil
	}
	if !a.surface.Confirm("Are you sure you want to clear all drawings?") {
		return false, nil
	}

	var ids []int
	for shape := range a.store.List() {
		ids = append(ids, shape.ID)
	}
	err := a.store.Clear()
	for _, id := range ids {
		a.surface.RemoveShape(id)
	}
	a.selection.DeselectAll()
	a.refreshList()
	if err != nil {
		a.notices.Error("Drawings cleared but the saved copy could not be removed")
		return true, err
	}
	a.notices.Info("All drawings cleared")
	return true, nil
}

// Move drags a marker or text label to a new position.
func (a *App) Move(id int, to core.LatLng) (core.Shape, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	shape, err := a.store.Move(id, to)
	switch {
	case errors.Is(err, annotation.ErrNotDraggable):
		a.notices.Warn("Only markers and text labels can be moved")
		return core.Shape{}, err
	case shape.ID == 0:
		return core.Shape{}, err
	}
	a.redraw(shape)
	if err != nil {
		a.notices.Error("Drawing moved but could not be saved")
	}
	return shape, err
}

// Shift drags a whole shape by the offset between two pointer positions.
func (a *App) Shift(id int, from, to core.LatLng) (core.Shape, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	shape, err := a.store.Translate(id, to.Lat-from.Lat, to.Lng-from.Lng)
	if shape.ID == 0 {
		if errors.Is(err, core.ErrInvalidGeometry) {
			a.notices.Warn("The drawing cannot be moved off the map")
		}
		return core.Shape{}, err
	}
	a.redraw(shape)
	if err != nil {
		a.notices.Error("Drawing moved but could not be saved")
	}
	return shape, err
}

// DrawPath commits a line or polygon from a complete list of points, as when
// a recorded path is replayed. Any draw session in progress is canceled.
func (a *App) DrawPath(kind core.Kind, points []core.LatLng) (core.Shape, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.publish()

	if !a.layer.Drawable() {
		a.notices.Warn("Drawing tools are only available on the Earthquake and Fault Lines layers")
		return core.Shape{}, fmt.Errorf("%w: %s", session.ErrLayerNotDrawable, a.layer)
	}
	a.session.Cancel("path drawn")

	var (
		g   core.Geometry
		err error
	)
	switch kind {
	case core.KindPolyline:
		g, err = core.NewPolyline(points)
	case core.KindPolygon:
		g, err = core.NewPolygon(points)
	default:
		return core.Shape{}, fmt.Errorf("%w: %s is not a path", session.ErrUnknownTool, kind)
	}
	if err != nil {
		return core.Shape{}, err
	}
	shape, err := committer{a}.Commit(g)
	switch {
	case shape.ID == 0:
		return core.Shape{}, err
	case err != nil:
		a.notices.Error("Drawing added but could not be saved")
	}
	return shape, err
}

// SetStyle changes the style of new shapes and restyles the selected one.
func (a *App) SetStyle(style core.Style) error {
	if err := style.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.style = style

	id, ok := a.selection.Selected()
	if !ok {
		return nil
	}
	shape, err := a.store.Restyle(id, style)
	if shape.ID == 0 {
		return err
	}
	a.redraw(shape)
	return err
}

// SetTextStyle changes the style of new labels and of the selected label.
func (a *App) SetTextStyle(ts core.TextStyle) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.textStyle = ts
	a.session.SetTextStyle(ts)

	id, ok := a.selection.Selected()
	if !ok {
		return nil
	}
	if current, _ := a.store.Get(id); current.Kind() != core.KindText {
		return nil
	}
	shape, err := a.store.Update(id, func(s *core.Shape) error {
		label := s.Geometry.(core.TextLabel)
		label.Style = ts
		s.Geometry = label
		return nil
	})
	if shape.ID == 0 {
		return err
	}
	a.redraw(shape)
	return err
}

// redraw re-renders an updated shape, keeping its highlight if selected.
func (a *App) redraw(shape core.Shape) {
	a.surface.DrawShape(shape)
	a.selection.Refresh()
	a.refreshList()
}

// Export writes the collection as GeoJSON into dir.
func (a *App) Export(dir string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path, err := a.store.Export(dir, a.now())
	if err != nil {
		a.notices.Error("Export failed")
		return "", err
	}
	n := a.store.Len()
	a.notices.Info(fmt.Sprintf("Exported %s to %s", util.Plural(n, "drawing"), path))
	return path, nil
}

// ListEntries returns the side list, newest first.
func (a *App) ListEntries() []core.ListEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []core.ListEntry
	for shape := range a.store.List() {
		out = append(out, shape.Entry())
	}
	return out
}

// Shape returns a committed shape.
func (a *App) Shape(id int) (core.Shape, bool) {
	return a.store.Get(id)
}
