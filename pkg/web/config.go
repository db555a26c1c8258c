package web

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/multierr"
)

// ErrInvalidConfig wraps configuration problems.
var ErrInvalidConfig = errors.New("web: invalid config")

// Config holds server settings.
type Config struct {
	// Port is the TCP port to listen on.
	Port string `json:"port"`

	// StaticDir is served at / when set (the browser renderer and editor).
	StaticDir string `json:"static_dir"`

	// AllowOrigins is passed to the CORS middleware.
	AllowOrigins string `json:"allow_origins"`

	// FrameRate is reported to clients by /api/config.
	FrameRate float64 `json:"frame_rate"`

	// AccessLog enables the request logger middleware.
	AccessLog bool `json:"access_log"`
}

// DefaultConfig returns local development settings.
func DefaultConfig() Config {
	return Config{
		Port:         "8080",
		AllowOrigins: "*",
		FrameRate:    60,
		AccessLog:    true,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	var err error
	if n, perr := strconv.Atoi(c.Port); perr != nil || n < 0 || n > 65535 {
		err = multierr.Append(err, fmt.Errorf("%w: port %q", ErrInvalidConfig, c.Port))
	}
	if c.FrameRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: frame_rate must be positive, got %g", ErrInvalidConfig, c.FrameRate))
	}
	return err
}
