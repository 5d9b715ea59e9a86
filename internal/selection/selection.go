// Package selection enforces the at-most-one selected shape rule and keeps
// the rendered highlight and the side list in step with it.
package selection

import (
	"fmt"
	"iter"

	"github.com/quakeph/quakemap/pkg/core"
)

// Shapes is the read side of the annotation store.
type Shapes interface {
	Get(id int) (core.Shape, bool)
	List() iter.Seq[core.Shape]
}

// StyleRenderer draws a shape with the given style.
type StyleRenderer interface {
	ApplyStyle(id int, style core.Style)
}

// ListView is the side list of committed shapes.
type ListView interface {
	// SetActive marks one entry active; id 0 clears the highlight.
	SetActive(id int)
	ScrollIntoView(id int)
}

// Controller tracks the selected shape.
type Controller struct {
	shapes    Shapes
	renderer  StyleRenderer
	list      ListView
	highlight string
	selected  int
}

// New creates a controller. highlight is the stroke color of the selected shape.
func New(shapes Shapes, renderer StyleRenderer, list ListView, highlight string) *Controller {
	if highlight == "" {
		highlight = core.HighlightColor
	}
	return &Controller{
		shapes:    shapes,
		renderer:  renderer,
		list:      list,
		highlight: highlight,
	}
}

// Selected returns the selected shape id.
func (c *Controller) Selected() (int, bool) {
	return c.selected, c.selected != 0
}

// Select highlights id and restores the previously selected shape.
func (c *Controller) Select(id int) error {
	shape, ok := c.shapes.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}

	if c.selected != 0 && c.selected != id {
		c.restore(c.selected)
	}
	c.selected = id
	c.renderer.ApplyStyle(id, shape.Style.Highlighted(c.highlight))
	c.list.SetActive(id)
	c.list.ScrollIntoView(id)
	return nil
}

// DeselectAll restores every shape's stored style and clears the list highlight.
func (c *Controller) DeselectAll() {
	for shape := range c.shapes.List() {
		c.renderer.ApplyStyle(shape.ID, shape.Style)
	}
	c.selected = 0
	c.list.SetActive(0)
}

// Release forgets id if it is selected. Called after the shape is deleted,
// so there is no style to restore.
func (c *Controller) Release(id int) {
	if c.selected == id {
		c.selected = 0
		c.list.SetActive(0)
	}
}

// Refresh re-applies the highlight after the selected shape changed.
func (c *Controller) Refresh() {
	if c.selected == 0 {
		return
	}
	shape, ok := c.shapes.Get(c.selected)
	if !ok {
		c.Release(c.selected)
		return
	}
	c.renderer.ApplyStyle(c.selected, shape.Style.Highlighted(c.highlight))
}

func (c *Controller) restore(id int) {
	if shape, ok := c.shapes.Get(id); ok {
		c.renderer.ApplyStyle(id, shape.Style)
	}
}
