package animation

import "errors"

var (
	// ErrInvalidConfig is returned when a loop config fails validation.
	ErrInvalidConfig = errors.New("animation: invalid config")

	// ErrLoopStopped is returned by Animate when the loop is no longer running.
	ErrLoopStopped = errors.New("animation: loop stopped")
)
