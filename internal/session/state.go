package session

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/quakeph/quakemap/pkg/core"
)

// Phase is the machine's current state name.
type Phase int

const (
	Idle Phase = iota
	Armed
	Dragging
	PathBuilding
	AwaitingTextInput
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	case PathBuilding:
		return "path-building"
	case AwaitingTextInput:
		return "awaiting-text"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the session. Only the fields relevant to Phase are set:
// Tool for every phase but Idle, Anchor for Dragging and AwaitingTextInput,
// Points for PathBuilding.
type State struct {
	Phase  Phase
	Tool   core.Kind
	Anchor core.LatLng
	Points []core.LatLng
	ID     uuid.UUID
}

// Active reports whether a session is in progress.
func (s State) Active() bool {
	return s.Phase != Idle
}

func (s State) String() string {
	switch s.Phase {
	case Idle:
		return "idle"
	case PathBuilding:
		return fmt.Sprintf("%s(%s, %d points)", s.Phase, s.Tool, len(s.Points))
	default:
		return fmt.Sprintf("%s(%s)", s.Phase, s.Tool)
	}
}

func (s State) clone() State {
	s.Points = slices.Clone(s.Points)
	return s
}
