// Package animation provides the eased tweens that move a blobot and the
// frame loop that advances them, one step per display refresh.
package animation

import (
	"time"

	"github.com/golang/geo/r3"
)

// Ease is the symmetric ease-in-out curve used for every motion.
// Ease(0) = 0, Ease(0.5) = 0.5, Ease(1) = 1.
func Ease(p float64) float64 {
	if p < 0.5 {
		return 2 * p * p
	}
	return -1 + (4-2*p)*p
}

// Progress returns elapsed/duration clamped to [0, 1]. A non-positive
// duration is complete immediately.
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(duration)
	if p > 1 {
		return 1
	}
	return p
}

// Lerp performs linear interpolation.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec interpolates a and b componentwise.
func LerpVec(a, b r3.Vector, t float64) r3.Vector {
	return r3.Vector{
		X: Lerp(a.X, b.X, t),
		Y: Lerp(a.Y, b.Y, t),
		Z: Lerp(a.Z, b.Z, t),
	}
}
