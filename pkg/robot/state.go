package robot

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-blobot/pkg/command"
)

// State is a snapshot of the robot.
type State struct {
	Position r3.Vector        `json:"position"`
	Yaw      float64          `json:"yaw"` // radians, not normalised
	Busy     bool             `json:"busy"`
	Active   *command.Command `json:"active,omitempty"`
	Queued   int              `json:"queued"`
}

// Facing returns the unit vector the robot faces at yaw. Yaw 0 faces +Z.
func Facing(yaw float64) r3.Vector {
	return r3.Vector{X: math.Sin(yaw), Y: 0, Z: math.Cos(yaw)}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// EventKind identifies a controller notification.
type EventKind string

const (
	EventQueued   EventKind = "queued"
	EventStarted  EventKind = "started"
	EventFinished EventKind = "finished"
	EventReset    EventKind = "reset"
)

// Event is delivered to OnEvent callbacks.
type Event struct {
	Kind    EventKind        `json:"kind"`
	Command *command.Command `json:"command,omitempty"`
	State   State            `json:"state"`
}

// EventFunc receives controller events. It must not block.
type EventFunc func(Event)
