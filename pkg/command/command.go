// Package command defines the motion primitives a blobot understands and the
// FIFO queue that holds them while an animation is in flight.
package command

import (
	"fmt"
	"strings"
)

// Kind identifies a motion primitive.
type Kind string

const (
	// MoveForward moves along the current facing direction (scene units).
	MoveForward Kind = "forward"
	// MoveBackward moves against the current facing direction (scene units).
	MoveBackward Kind = "backward"
	// TurnLeft rotates counter-clockwise around the vertical axis (degrees).
	TurnLeft Kind = "turnLeft"
	// TurnRight rotates clockwise around the vertical axis (degrees).
	TurnRight Kind = "turnRight"
)

// Manual control magnitudes used by the UI buttons.
const (
	DefaultDistance = 1.0
	DefaultDegrees  = 45.0
)

var kinds = []Kind{MoveForward, MoveBackward, TurnLeft, TurnRight}

// Kinds returns all known motion kinds in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a known motion kind.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsTurn reports whether k changes the yaw rather than the position.
func (k Kind) IsTurn() bool {
	return k == TurnLeft || k == TurnRight
}

// Unit returns the unit the magnitude of k is expressed in.
func (k Kind) Unit() string {
	if k.IsTurn() {
		return "deg"
	}
	return "units"
}

// DefaultValue returns the magnitude a manual trigger uses for k.
func (k Kind) DefaultValue() float64 {
	if k.IsTurn() {
		return DefaultDegrees
	}
	return DefaultDistance
}

// ParseKind resolves a kind from its wire name or a manual-control alias
// ("left", "right", "fwd", "back").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd", "moveforward":
		return MoveForward, nil
	case "backward", "back", "movebackward":
		return MoveBackward, nil
	case "turnleft", "left":
		return TurnLeft, nil
	case "turnright", "right":
		return TurnRight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Command is one atomic robot instruction. It is immutable once created and
// consumed exactly once.
type Command struct {
	Kind  Kind    `json:"type"`
	Value float64 `json:"value"`
}

// Forward returns a MoveForward command.
func Forward(distance float64) Command { return Command{Kind: MoveForward, Value: distance} }

// Backward returns a MoveBackward command.
func Backward(distance float64) Command { return Command{Kind: MoveBackward, Value: distance} }

// Left returns a TurnLeft command.
func Left(degrees float64) Command { return Command{Kind: TurnLeft, Value: degrees} }

// Right returns a TurnRight command.
func Right(degrees float64) Command { return Command{Kind: TurnRight, Value: degrees} }

// String formats the command the way a script would call it.
func (c Command) String() string {
	switch c.Kind {
	case MoveForward:
		return fmt.Sprintf("moveForward(%g)", c.Value)
	case MoveBackward:
		return fmt.Sprintf("moveBackward(%g)", c.Value)
	case TurnLeft:
		return fmt.Sprintf("turnLeft(%g)", c.Value)
	case TurnRight:
		return fmt.Sprintf("turnRight(%g)", c.Value)
	}
	return fmt.Sprintf("%s(%g)", c.Kind, c.Value)
}

// Validate checks that the command has a known kind. Any finite or infinite
// magnitude is accepted; negative values reverse the visible effect.
func (c Command) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(c.Kind))
	}
	return nil
}
