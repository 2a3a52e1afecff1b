// Package feedback collapses a frame's failing gate results into exactly
// one actionable camera instruction and keeps it stable across frames.
package feedback

import (
	"fmt"

	"github.com/framewise/framewise/internal/gates"
)

// Action is the closed set of camera corrections the app can ask for.
// The four compound actions pair a zoom with a stance move because each
// alone changes a different photographic property.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBack
	ActionMoveLeft
	ActionMoveRight
	ActionTiltUp
	ActionTiltDown
	ActionZoomIn
	ActionZoomOut
	ActionZoomInMoveBack
	ActionZoomInMoveForward
	ActionZoomOutMoveBack
	ActionZoomOutMoveForward

	ActionCount = 12
)

var actionNames = [ActionCount]string{
	"move_forward",
	"move_back",
	"move_left",
	"move_right",
	"tilt_up",
	"tilt_down",
	"zoom_in",
	"zoom_out",
	"zoom_in_move_back",
	"zoom_in_move_forward",
	"zoom_out_move_back",
	"zoom_out_move_forward",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Family groups actions whose instructions read interchangeably to the
// user. The stabilizer only switches instructions across family borders.
type Family int

const (
	FamilyDistance Family = iota
	FamilyPan
	FamilyTilt
	FamilyZoom
	FamilyZoomMove
)

var actionFamilies = [ActionCount]Family{
	ActionMoveForward:        FamilyDistance,
	ActionMoveBack:           FamilyDistance,
	ActionMoveLeft:           FamilyPan,
	ActionMoveRight:          FamilyPan,
	ActionTiltUp:             FamilyTilt,
	ActionTiltDown:           FamilyTilt,
	ActionZoomIn:             FamilyZoom,
	ActionZoomOut:            FamilyZoom,
	ActionZoomInMoveBack:     FamilyZoomMove,
	ActionZoomInMoveForward:  FamilyZoomMove,
	ActionZoomOutMoveBack:    FamilyZoomMove,
	ActionZoomOutMoveForward: FamilyZoomMove,
}

// ActionFamily returns the instruction family of a.
func (a Action) Family() Family { return actionFamilies[a] }

// actionGates is the static action-to-gate table: which gates each action
// can move toward passing. Total over the enum.
var actionGates = [ActionCount][]gates.GateIndex{
	ActionMoveForward:        {gates.GateFraming, gates.GatePosition},
	ActionMoveBack:           {gates.GateFraming, gates.GatePosition},
	ActionMoveLeft:           {gates.GatePosition},
	ActionMoveRight:          {gates.GatePosition},
	ActionTiltUp:             {gates.GateFraming, gates.GatePosition},
	ActionTiltDown:           {gates.GateFraming, gates.GatePosition},
	ActionZoomIn:             {gates.GateCompression},
	ActionZoomOut:            {gates.GateCompression},
	ActionZoomInMoveBack:     {gates.GateFraming, gates.GateCompression},
	ActionZoomInMoveForward:  {gates.GateFraming, gates.GateCompression},
	ActionZoomOutMoveBack:    {gates.GateFraming, gates.GateCompression},
	ActionZoomOutMoveForward: {gates.GateFraming, gates.GateCompression},
}

// ResolvesGates returns the gates this action can move toward passing.
func (a Action) ResolvesGates() []gates.GateIndex { return actionGates[a] }

// MirrorsHorizontally reports whether the action's direction flips on the
// front camera, where the preview is horizontally mirrored.
func (a Action) MirrorsHorizontally() bool {
	return a == ActionMoveLeft || a == ActionMoveRight
}

// Mirrored returns the front-camera equivalent of a.
func (a Action) Mirrored() Action {
	switch a {
	case ActionMoveLeft:
		return ActionMoveRight
	case ActionMoveRight:
		return ActionMoveLeft
	default:
		return a
	}
}

// Instruction renders the action with its magnitude as user-facing text.
func (a Action) Instruction(magnitude string) string {
	switch a {
	case ActionMoveForward:
		return fmt.Sprintf("move %s closer", magnitude)
	case ActionMoveBack:
		return fmt.Sprintf("move back %s", magnitude)
	case ActionMoveLeft:
		return fmt.Sprintf("move the camera left by %s", magnitude)
	case ActionMoveRight:
		return fmt.Sprintf("move the camera right by %s", magnitude)
	case ActionTiltUp:
		return fmt.Sprintf("tilt the camera up %s", magnitude)
	case ActionTiltDown:
		return fmt.Sprintf("tilt the camera down %s", magnitude)
	case ActionZoomIn:
		return fmt.Sprintf("zoom in %s", magnitude)
	case ActionZoomOut:
		return fmt.Sprintf("zoom out %s", magnitude)
	case ActionZoomInMoveBack:
		return fmt.Sprintf("zoom in %s and move back to keep the subject size", magnitude)
	case ActionZoomInMoveForward:
		return fmt.Sprintf("zoom in %s and move closer to keep the subject size", magnitude)
	case ActionZoomOutMoveBack:
		return fmt.Sprintf("zoom out %s and move back to keep the subject size", magnitude)
	case ActionZoomOutMoveForward:
		return fmt.Sprintf("zoom out %s and move closer to keep the subject size", magnitude)
	default:
		return magnitude
	}
}
