// Package surface is a headless stand-in for the map widget. It records what
// the engine asks it to display so the CLI can print it and tests can assert on it.
package surface

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/quakeph/quakemap/internal/notify"
	"github.com/quakeph/quakemap/internal/util"
	"github.com/quakeph/quakemap/pkg/core"
)

// View is the rendered map position.
type View struct {
	Center core.LatLng
	Zoom   int
}

// Headless records every call. The zero value is not usable; call New.
type Headless struct {
	mu sync.Mutex

	shapes  map[int]core.Shape
	styles  map[int]core.Style
	preview core.Geometry
	entries []core.ListEntry
	active  int
	scrolls []int
	prompts []core.LatLng
	notices []notify.Notice
	quakes  []core.Quake
	faults  []core.FaultLine
	legend  []core.LegendItem
	// quake id -> highlighted
	lit     map[string]bool
	updated time.Time
	view    View
	confirm bool
	asked   []string
}

// New creates an empty surface. confirm is the answer given to every Confirm.
func New(confirm bool) *Headless {
	return &Headless{
		shapes:  make(map[int]core.Shape),
		styles:  make(map[int]core.Style),
		lit:     make(map[string]bool),
		confirm: confirm,
		view:    View{Center: core.LatLng{Lat: 12.8797, Lng: 121.7740}, Zoom: 6},
	}
}

func (h *Headless) ShowPreview(g core.Geometry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.preview = g
}

func (h *Headless) ClearPreview() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.preview = nil
}

func (h *Headless) RequestText(anchor core.LatLng) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompts = append(h.prompts, anchor)
}

func (h *Headless) ApplyStyle(id int, style core.Style) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.shapes[id]; ok {
		h.styles[id] = style
	}
}

func (h *Headless) SetActive(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = id
}

func (h *Headless) ScrollIntoView(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scrolls = append(h.scrolls, id)
}

// DrawShape adds or replaces a rendered shape with its stored style.
func (h *Headless) DrawShape(s core.Shape) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shapes[s.ID] = s
	h.styles[s.ID] = s.Style
}

func (h *Headless) RemoveShape(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.shapes, id)
	delete(h.styles, id)
}

func (h *Headless) RefreshList(entries []core.ListEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = slices.Clone(entries)
}

func (h *Headless) Confirm(prompt string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.asked = append(h.asked, prompt)
	return h.confirm
}

func (h *Headless) FlyTo(at core.LatLng, zoom int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = View{Center: at, Zoom: zoom}
}

func (h *Headless) ShowQuakes(quakes []core.Quake) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quakes = slices.Clone(quakes)
}

func (h *Headless) ShowFaults(faults []core.FaultLine) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.faults = slices.Clone(faults)
}

func (h *Headless) ShowLegend(items []core.LegendItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.legend = slices.Clone(items)
}

func (h *Headless) HighlightQuake(id string, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if on {
		h.lit[id] = true
		return
	}
	delete(h.lit, id)
}

func (h *Headless) SetLastUpdate(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updated = t
}

// Notify implements notify.Sink.
func (h *Headless) Notify(n notify.Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, n)
}

// Preview returns the provisional shape on display, if any.
func (h *Headless) Preview() core.Geometry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.preview
}

// Shapes returns the drawn shape ids in ascending order.
func (h *Headless) Shapes() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Sorted(maps.Keys(h.shapes))
}

// Style returns the style the shape is currently rendered with.
func (h *Headless) Style(id int) (core.Style, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.styles[id]
	return s, ok
}

// Shape returns the drawn shape.
func (h *Headless) Shape(id int) (core.Shape, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.shapes[id]
	return s, ok
}

func (h *Headless) Entries() []core.ListEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.entries)
}

// Active returns the highlighted list entry, 0 for none.
func (h *Headless) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *Headless) Scrolls() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.scrolls)
}

func (h *Headless) Prompts() []core.LatLng {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.prompts)
}

func (h *Headless) Notices() []notify.Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.notices)
}

func (h *Headless) Quakes() []core.Quake {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.quakes)
}

func (h *Headless) Faults() []core.FaultLine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.faults)
}

func (h *Headless) Legend() []core.LegendItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.legend)
}

// Highlighted reports whether the quake marker is drawn highlighted.
func (h *Headless) Highlighted(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lit[id]
}

func (h *Headless) LastUpdate() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updated
}

func (h *Headless) View() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view
}

// Asked returns every confirmation prompt shown.
func (h *Headless) Asked() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.asked)
}

// SetConfirm changes the answer to future Confirm calls.
func (h *Headless) SetConfirm(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.confirm = ok
}

// Render writes the side list and the selection in a plain text layout.
func (h *Headless) Render(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		mark := " "
		if e.ID == h.active {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %3d  %-14s %-10s %s\n", mark, e.ID, e.Name, e.Kind, e.Summary); err != nil {
			return err
		}
	}
	return nil
}

// RenderQuakes writes the earthquake list in the order given, each event with
// the marker it is drawn with.
func (h *Headless) RenderQuakes(w io.Writer, quakes []core.Quake) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, q := range quakes {
		mark := " "
		if h.lit[q.ID] {
			mark = "*"
		}
		m := q.Marker(h.lit[q.ID])
		if _, err := fmt.Fprintf(w, "%s M%-4.1f %s r=%-4.1f %-45s %s  %6.1f km  %s\n",
			mark, q.Magnitude, m.Fill, m.Radius, util.Truncate(q.Place, 45),
			q.Time.UTC().Format("2006-01-02 15:04"), q.Depth, q.Status); err != nil {
			return err
		}
	}
	return nil
}

// RenderLegend writes the legend and the time of the last feed update.
func (h *Headless) RenderLegend(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, item := range h.legend {
		swatch := "       "
		if item.Color != "" {
			swatch = item.Color
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", swatch, item.Label); err != nil {
			return err
		}
	}
	if !h.updated.IsZero() {
		if _, err := fmt.Fprintf(w, "Last update: %s\n", h.updated.Format("15:04:05")); err != nil {
			return err
		}
	}
	return nil
}

// FixedLocator reports a preset position or error.
type FixedLocator struct {
	At  core.LatLng
	Err error
}

// Locate implements the geolocation collaborator.
func (l FixedLocator) Locate(ctx context.Context) (core.LatLng, error) {
	if err := ctx.Err(); err != nil {
		return core.LatLng{}, err
	}
	return l.At, l.Err
}
