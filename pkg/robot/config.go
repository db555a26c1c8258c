package robot

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
)

// DefaultDuration is the length of every motion animation.
const DefaultDuration = 500 * time.Millisecond

// Config holds controller settings.
type Config struct {
	// Duration is the per-motion animation length.
	Duration time.Duration

	// InitialPosition and InitialYaw define the pose Reset returns to.
	InitialPosition r3.Vector
	InitialYaw      float64
}

// DefaultConfig places the robot standing on the origin facing +Z.
func DefaultConfig() Config {
	return Config{
		Duration:        DefaultDuration,
		InitialPosition: r3.Vector{X: 0, Y: 0.5, Z: 0},
		InitialYaw:      0,
	}
}

// Validate checks the config. All problems are reported together.
func (c Config) Validate() error {
	var err error
	if c.Duration < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: duration must not be negative, got %v", ErrInvalidConfig, c.Duration))
	}
	if !finite(c.InitialPosition.X) || !finite(c.InitialPosition.Y) || !finite(c.InitialPosition.Z) {
		err = multierr.Append(err, fmt.Errorf("%w: initial position must be finite, got %v", ErrInvalidConfig, c.InitialPosition))
	}
	if !finite(c.InitialYaw) {
		err = multierr.Append(err, fmt.Errorf("%w: initial yaw must be finite, got %v", ErrInvalidConfig, c.InitialYaw))
	}
	return err
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
