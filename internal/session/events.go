package session

import "github.com/quakeph/quakemap/pkg/core"

// Event is the closed set of inputs the machine understands.
type Event interface {
	isEvent()
}

// Arm selects a drawing tool.
type Arm struct{ Tool core.Kind }

// PointerDown is a press on the map surface.
type PointerDown struct{ At core.LatLng }

// PointerMove is the pointer moving over the map surface.
type PointerMove struct{ At core.LatLng }

// PointerUp is a release on the map surface.
type PointerUp struct{ At core.LatLng }

// Click is a completed press and release without a drag.
type Click struct{ At core.LatLng }

// DoubleClick finishes a path when enough points have been placed.
type DoubleClick struct{ At core.LatLng }

// Finish is the keyboard "finish path" command.
type Finish struct{}

// TextSubmitted carries the text typed into the label form.
type TextSubmitted struct{ Text string }

// TextCanceled closes the label form without a label.
type TextCanceled struct{}

// Cancel abandons the current session.
type Cancel struct{ Reason string }

// LayerChanged reports that the active map layer switched.
type LayerChanged struct{ Layer core.Layer }

func (Arm) isEvent()           {}
func (PointerDown) isEvent()   {}
func (PointerMove) isEvent()   {}
func (PointerUp) isEvent()     {}
func (Click) isEvent()         {}
func (DoubleClick) isEvent()   {}
func (Finish) isEvent()        {}
func (TextSubmitted) isEvent() {}
func (TextCanceled) isEvent()  {}
func (Cancel) isEvent()        {}
func (LayerChanged) isEvent()  {}
