// Package robot owns a blobot's pose and runs its motion commands one at a
// time, queueing anything issued while an animation is in flight.
//
// Consumers depend on the small interfaces below rather than on Controller.
package robot

import (
	"context"
	"time"

	"github.com/teslashibe/go-blobot/pkg/animation"
	"github.com/teslashibe/go-blobot/pkg/command"
)

// Animator suspends the caller while a tween advances from 0 to 1.
// animation.Loop is the production implementation.
type Animator interface {
	Animate(ctx context.Context, duration time.Duration, apply animation.ApplyFunc) error
}

// Mover issues motion commands.
type Mover interface {
	// Submit starts cmd or queues it without waiting.
	Submit(cmd command.Command) (queued bool, err error)
	// Do starts cmd and waits for its animation, or queues it and returns.
	Do(ctx context.Context, cmd command.Command) error
}

// Resetter snaps the robot back to its initial pose.
type Resetter interface {
	Reset()
}

// StateReader exposes the current pose.
type StateReader interface {
	State() State
}

// Ensure Controller implements the consumer interfaces
var (
	_ Mover       = (*Controller)(nil)
	_ Resetter    = (*Controller)(nil)
	_ StateReader = (*Controller)(nil)
	_ Animator    = (*animation.Loop)(nil)
)
