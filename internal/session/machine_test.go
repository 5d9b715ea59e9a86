package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/quakeph/quakemap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	previews  []core.Geometry
	cleared   int
	prompts   []core.LatLng
	warnings  []string
	errors    []string
	committed []core.Geometry
	commitErr error
	nextID    int
}

func (f *fakeSurface) ShowPreview(g core.Geometry)       { f.previews = append(f.previews, g) }
func (f *fakeSurface) ClearPreview()                     { f.cleared++ }
func (f *fakeSurface) RequestText(anchor core.LatLng)    { f.prompts = append(f.prompts, anchor) }
func (f *fakeSurface) Warn(msg string)                   { f.warnings = append(f.warnings, msg) }
func (f *fakeSurface) Error(msg string)                  { f.errors = append(f.errors, msg) }
func (f *fakeSurface) lastPreview() core.Geometry        { return f.previews[len(f.previews)-1] }
func (f *fakeSurface) Commit(g core.Geometry) (core.Shape, error) {
	f.committed = append(f.committed, g)
	if f.commitErr != nil && !errors.Is(f.commitErr, core.ErrPersistence) {
		return core.Shape{}, f.commitErr
	}
	f.nextID++
	return core.Shape{ID: f.nextID, Geometry: g, Style: core.DefaultStyle}, f.commitErr
}

func newMachine(opts Options) (*Machine, *fakeSurface) {
	f := &fakeSurface{}
	return New(f, f, f, f, opts), f
}

func ll(lat, lng float64) core.LatLng { return core.LatLng{Lat: lat, Lng: lng} }

func mustHandle(t *testing.T, m *Machine, events ...Event) Result {
	t.Helper()
	var last Result
	for _, ev := range events {
		r, err := m.Handle(ev)
		require.NoError(t, err, "%T", ev)
		if r.Committed {
			last = r
		}
	}
	return last
}

func TestArm(t *testing.T) {
	fixed := uuid.MustParse("6f1c2a4e-3b7d-4c39-9a51-2d0e8f7b1c33")
	m, _ := newMachine(Options{NewID: func() uuid.UUID { return fixed }})

	mustHandle(t, m, Arm{Tool: core.KindPolygon})
	s := m.State()
	assert.Equal(t, Armed, s.Phase)
	assert.Equal(t, core.KindPolygon, s.Tool)
	assert.Equal(t, fixed, s.ID)
}

func TestArm_AliasesAreNormalized(t *testing.T) {
	m, _ := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: "line"})
	assert.Equal(t, core.KindPolyline, m.State().Tool)
	r := mustHandle(t, m, Click{At: ll(14, 121)}, Click{At: ll(14.1, 121.1)}, Click{At: ll(14.1, 121.1)}, DoubleClick{At: ll(14.1, 121.1)})
	require.True(t, r.Committed)
	assert.Equal(t, core.KindPolyline, r.Shape.Kind())

	mustHandle(t, m, Arm{Tool: " RECT "})
	assert.Equal(t, core.KindRectangle, m.State().Tool)
	r = mustHandle(t, m, PointerDown{At: ll(14, 121)}, PointerUp{At: ll(14.2, 121.2)})
	require.True(t, r.Committed)
	assert.Equal(t, core.KindRectangle, r.Shape.Kind())
	assert.Equal(t, Idle, m.State().Phase)
}

func TestArm_UnknownTool(t *testing.T) {
	m, _ := newMachine(Options{})
	_, err := m.Handle(Arm{Tool: "hexagon"})
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Equal(t, Idle, m.State().Phase)
}

func TestArm_RejectedOnHazardLayer(t *testing.T) {
	m, f := newMachine(Options{Layer: core.LayerHazard})

	for _, tool := range core.Kinds {
		_, err := m.Handle(Arm{Tool: tool})
		assert.ErrorIs(t, err, ErrLayerNotDrawable)
		assert.Equal(t, Idle, m.State().Phase)
	}
	assert.Len(t, f.warnings, len(core.Kinds))
	assert.Empty(t, f.committed)
}

func TestArm_AllowedOnFaultLayer(t *testing.T) {
	m, _ := newMachine(Options{Layer: core.LayerFault})
	mustHandle(t, m, Arm{Tool: core.KindMarker})
	assert.Equal(t, Armed, m.State().Phase)
}

func TestMarker_PointerDownFinalizes(t *testing.T) {
	m, f := newMachine(Options{})
	r := mustHandle(t, m, Arm{Tool: core.KindMarker}, PointerDown{At: ll(14.5, 121)})

	require.True(t, r.Committed)
	assert.Equal(t, core.Marker{At: ll(14.5, 121)}, r.Shape.Geometry)
	assert.Equal(t, Idle, m.State().Phase)
	assert.Len(t, f.committed, 1)
}

func TestRectangle_DragScenario(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindRectangle}, PointerDown{At: ll(14.5, 121.0)})

	s := m.State()
	assert.Equal(t, Dragging, s.Phase)
	assert.Equal(t, ll(14.5, 121.0), s.Anchor)
	assert.Equal(t, core.Rectangle{Bounds: core.BoundsOf(ll(14.5, 121.0), ll(14.5, 121.0))}, f.lastPreview(), "zero-size preview")

	mustHandle(t, m, PointerMove{At: ll(14.6, 121.1)})
	assert.Equal(t, core.Rectangle{Bounds: core.BoundsOf(ll(14.5, 121.0), ll(14.6, 121.1))}, f.lastPreview())

	r := mustHandle(t, m, PointerUp{At: ll(14.6, 121.1)})
	require.True(t, r.Committed)
	rect := r.Shape.Geometry.(core.Rectangle)
	assert.Equal(t, ll(14.5, 121.0), rect.Bounds.SouthWest)
	assert.Equal(t, ll(14.6, 121.1), rect.Bounds.NorthEast)
	assert.Equal(t, Idle, m.State().Phase)
	assert.Positive(t, f.cleared)
}

func TestCircle_RadiusIsGreatCircleDistance(t *testing.T) {
	m, f := newMachine(Options{})
	r := mustHandle(t, m,
		Arm{Tool: core.KindCircle},
		PointerDown{At: ll(14.5, 121.0)},
		PointerMove{At: ll(14.51, 121.0)},
		PointerUp{At: ll(14.51, 121.0)},
	)
	require.True(t, r.Committed)
	c := r.Shape.Geometry.(core.Circle)
	assert.Equal(t, ll(14.5, 121.0), c.Center)
	assert.InDelta(t, 1113, c.Radius, 2)
	assert.IsType(t, core.Circle{}, f.previews[0])
}

func TestDegenerate_AcceptedByDefault(t *testing.T) {
	m, _ := newMachine(Options{})
	r := mustHandle(t, m, Arm{Tool: core.KindCircle}, PointerDown{At: ll(1, 1)}, PointerUp{At: ll(1, 1)})
	require.True(t, r.Committed)
	assert.Zero(t, r.Shape.Geometry.(core.Circle).Radius)
}

func TestDegenerate_RejectedWhenConfigured(t *testing.T) {
	m, f := newMachine(Options{RejectDegenerate: true})
	mustHandle(t, m, Arm{Tool: core.KindRectangle}, PointerDown{At: ll(1, 1)})

	_, err := m.Handle(PointerUp{At: ll(1, 1)})
	assert.ErrorIs(t, err, core.ErrInvalidGeometry)
	assert.Equal(t, Idle, m.State().Phase)
	assert.Empty(t, f.committed)
	assert.Len(t, f.errors, 1)
}

func TestPolyline_PointCountPreserved(t *testing.T) {
	points := []core.LatLng{ll(14.0, 121.0), ll(14.1, 121.1), ll(14.2, 121.0), ll(14.3, 121.2)}

	m, _ := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolyline})
	for _, p := range points {
		mustHandle(t, m, Click{At: p})
	}
	// a double-click arrives as two clicks on the last spot, then the dblclick
	last := points[len(points)-1]
	r := mustHandle(t, m, Click{At: last}, Click{At: last}, DoubleClick{At: last})

	require.True(t, r.Committed)
	assert.Equal(t, points, r.Shape.Geometry.(core.Polyline).Points)
}

func TestPolyline_PreviewFollowsCursor(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolyline}, Click{At: ll(1, 1)})
	assert.Empty(t, f.previews, "a single point has no line to preview")

	mustHandle(t, m, PointerMove{At: ll(2, 2)})
	assert.Equal(t, core.Polyline{Points: []core.LatLng{ll(1, 1), ll(2, 2)}}, f.lastPreview())
	assert.Len(t, m.State().Points, 1, "moving does not add points")
}

func TestPolygon_DoubleClickNoOpUnderThree(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolygon}, Click{At: ll(1, 1)}, Click{At: ll(1, 2)})

	r := mustHandle(t, m, DoubleClick{At: ll(1, 2)})
	assert.False(t, r.Committed)
	assert.Equal(t, PathBuilding, m.State().Phase)
	assert.Len(t, m.State().Points, 2)
	assert.Empty(t, f.committed)

	r = mustHandle(t, m, Click{At: ll(2, 2)}, DoubleClick{At: ll(2, 2)})
	require.True(t, r.Committed)
	assert.Len(t, r.Shape.Geometry.(core.Polygon).Ring, 3)
}

func TestPolygon_PreviewBecomesPolygon(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolygon}, Click{At: ll(1, 1)}, Click{At: ll(1, 2)})
	assert.IsType(t, core.Polyline{}, f.lastPreview())

	mustHandle(t, m, PointerMove{At: ll(2, 2)})
	assert.IsType(t, core.Polygon{}, f.lastPreview())
}

func TestFinish_TooFewPoints(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolygon}, Click{At: ll(1, 1)}, Click{At: ll(1, 2)})

	_, err := m.Handle(Finish{})
	assert.ErrorIs(t, err, core.ErrInvalidGeometry)
	assert.Equal(t, Idle, m.State().Phase)
	assert.Empty(t, f.committed)
	assert.Len(t, f.errors, 1)
}

func TestFinish_Commits(t *testing.T) {
	m, _ := newMachine(Options{})
	r := mustHandle(t, m, Arm{Tool: core.KindPolyline}, Click{At: ll(1, 1)}, Click{At: ll(1, 2)}, Finish{})
	assert.True(t, r.Committed)
}

func TestText_SubmitCommitsLabel(t *testing.T) {
	style := core.TextStyle{FontSize: 22, TextColor: "#000000", BackgroundColor: "#ffffff"}
	m, f := newMachine(Options{TextStyle: style})
	mustHandle(t, m, Arm{Tool: core.KindText}, Click{At: ll(14.5, 121)})

	assert.Equal(t, AwaitingTextInput, m.State().Phase)
	assert.Equal(t, []core.LatLng{ll(14.5, 121)}, f.prompts)

	r := mustHandle(t, m, TextSubmitted{Text: "Epicenter"})
	require.True(t, r.Committed)
	assert.Equal(t, core.TextLabel{At: ll(14.5, 121), Text: "Epicenter", Style: style}, r.Shape.Geometry)
	assert.Equal(t, Idle, m.State().Phase)
}

func TestText_SetTextStyle(t *testing.T) {
	m, _ := newMachine(Options{})
	style := core.TextStyle{FontSize: 30, TextColor: "#ff0000", BackgroundColor: "#00ff00"}
	m.SetTextStyle(style)
	r := mustHandle(t, m, Arm{Tool: core.KindText}, Click{At: ll(1, 1)}, TextSubmitted{Text: "x"})
	assert.Equal(t, style, r.Shape.Geometry.(core.TextLabel).Style)
}

func TestText_BlankOrCanceledDiscards(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindText}, Click{At: ll(1, 1)}, TextSubmitted{Text: "   "})
	assert.Equal(t, Idle, m.State().Phase)

	mustHandle(t, m, Arm{Tool: core.KindText}, Click{At: ll(1, 1)}, TextCanceled{})
	assert.Equal(t, Idle, m.State().Phase)
	assert.Empty(t, f.committed)
}

func TestCancel_Idempotent(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolyline}, Click{At: ll(1, 1)}, Click{At: ll(2, 2)})

	mustHandle(t, m, Cancel{Reason: "escape"}, Cancel{Reason: "escape"})
	assert.Equal(t, Idle, m.State().Phase)
	assert.Empty(t, m.State().Points)
	assert.Equal(t, 1, f.cleared)
	assert.Empty(t, f.committed)
}

func TestArmingAnotherTool_ForceCancels(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolygon}, Click{At: ll(1, 1)}, Click{At: ll(1, 2)}, Arm{Tool: core.KindCircle})

	s := m.State()
	assert.Equal(t, Armed, s.Phase)
	assert.Equal(t, core.KindCircle, s.Tool)
	assert.Empty(t, s.Points)
	assert.Empty(t, f.committed)
}

func TestLayerChanged_ForceCancels(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindRectangle}, PointerDown{At: ll(1, 1)}, LayerChanged{Layer: core.LayerRisk})

	assert.Equal(t, Idle, m.State().Phase)
	assert.Equal(t, core.LayerRisk, m.Layer())

	mustHandle(t, m, PointerUp{At: ll(2, 2)})
	assert.Empty(t, f.committed, "no partial shape survives a layer switch")

	_, err := m.Handle(Arm{Tool: core.KindMarker})
	assert.ErrorIs(t, err, ErrLayerNotDrawable)
}

func TestIrrelevantEventsIgnored(t *testing.T) {
	m, f := newMachine(Options{})
	mustHandle(t, m,
		PointerDown{At: ll(1, 1)},
		PointerMove{At: ll(1, 1)},
		PointerUp{At: ll(1, 1)},
		Click{At: ll(1, 1)},
		DoubleClick{At: ll(1, 1)},
		Finish{},
		TextSubmitted{Text: "x"},
		TextCanceled{},
	)
	assert.Equal(t, Idle, m.State().Phase)
	assert.Empty(t, f.committed)
	assert.Empty(t, f.previews)

	mustHandle(t, m, Arm{Tool: core.KindMarker}, Click{At: ll(1, 1)}, PointerUp{At: ll(1, 1)})
	assert.Equal(t, Armed, m.State().Phase, "marker waits for pointer-down")
}

func TestCommitFailure(t *testing.T) {
	m, f := newMachine(Options{})
	f.commitErr = core.ErrDuplicateID

	_, err := m.Handle(Arm{Tool: core.KindMarker})
	require.NoError(t, err)
	r, err := m.Handle(PointerDown{At: ll(1, 1)})
	assert.ErrorIs(t, err, core.ErrDuplicateID)
	assert.False(t, r.Committed)
	assert.Equal(t, Idle, m.State().Phase)
	assert.Len(t, f.errors, 1)
}

func TestCommitPersistenceFailure_StillCommitted(t *testing.T) {
	m, f := newMachine(Options{})
	f.commitErr = core.ErrPersistence

	mustHandle(t, m, Arm{Tool: core.KindMarker})
	r, err := m.Handle(PointerDown{At: ll(1, 1)})
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.True(t, r.Committed)
	assert.Equal(t, 1, r.Shape.ID)
}

func TestStateIsACopy(t *testing.T) {
	m, _ := newMachine(Options{})
	mustHandle(t, m, Arm{Tool: core.KindPolyline}, Click{At: ll(1, 1)})

	s := m.State()
	s.Points[0] = ll(9, 9)
	assert.Equal(t, ll(1, 1), m.State().Points[0])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", State{}.String())
	assert.Equal(t, "path-building(polygon, 2 points)", State{Phase: PathBuilding, Tool: core.KindPolygon, Points: make([]core.LatLng, 2)}.String())
	assert.Equal(t, "armed(marker)", State{Phase: Armed, Tool: core.KindMarker}.String())
}
