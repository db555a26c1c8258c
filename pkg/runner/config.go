package runner

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/teslashibe/go-blobot/pkg/script"
)

// Config holds runner settings.
type Config struct {
	// MaxRuns bounds the run history, finished runs are evicted oldest first.
	MaxRuns int `json:"max_runs"`

	// CancelPrevious cancels active runs when a new one starts.
	CancelPrevious bool `json:"cancel_previous"`

	// Limits apply to every run.
	Limits script.Limits `json:"limits"`
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		MaxRuns:        64,
		CancelPrevious: true,
		Limits:         script.DefaultLimits(),
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	var err error
	if c.MaxRuns <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: max_runs must be positive, got %d", ErrInvalidConfig, c.MaxRuns))
	}
	if lerr := c.Limits.Validate(); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: %w", ErrInvalidConfig, lerr))
	}
	return err
}
