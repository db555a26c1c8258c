package animation

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// DefaultFrameRate approximates a display refresh.
const DefaultFrameRate = 60.0

// MaxFrameRate bounds the loop so a typo cannot spin a core.
const MaxFrameRate = 1000.0

// Config holds frame loop settings.
type Config struct {
	// FrameRate is the number of driver ticks per second.
	FrameRate float64 `json:"frame_rate"`
}

// DefaultConfig returns a 60 Hz loop.
func DefaultConfig() Config {
	return Config{FrameRate: DefaultFrameRate}
}

// FrameInterval returns the time between ticks.
func (c Config) FrameInterval() time.Duration {
	rate := c.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / rate)
}

// Validate checks that the frame rate is usable.
func (c Config) Validate() error {
	var err error
	if c.FrameRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: frame_rate must be positive, got %g", ErrInvalidConfig, c.FrameRate))
	}
	if c.FrameRate > MaxFrameRate {
		err = multierr.Append(err, fmt.Errorf("%w: frame_rate must be at most %g, got %g", ErrInvalidConfig, MaxFrameRate, c.FrameRate))
	}
	return err
}
