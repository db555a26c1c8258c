package app

import (
	"go.uber.org/multierr"

	"github.com/teslashibe/go-blobot/pkg/animation"
	"github.com/teslashibe/go-blobot/pkg/robot"
	"github.com/teslashibe/go-blobot/pkg/runner"
	"github.com/teslashibe/go-blobot/pkg/web"
)

// Config gathers the settings of every component.
type Config struct {
	Robot     robot.Config     `json:"robot"`
	Animation animation.Config `json:"animation"`
	Runner    runner.Config    `json:"runner"`
	Web       web.Config       `json:"web"`

	// Headless skips the web server.
	Headless bool `json:"headless"`
}

// DefaultConfig returns defaults for every component.
func DefaultConfig() Config {
	return Config{
		Robot:     robot.DefaultConfig(),
		Animation: animation.DefaultConfig(),
		Runner:    runner.DefaultConfig(),
		Web:       web.DefaultConfig(),
	}
}

// Validate checks every component config and reports all problems.
func (c Config) Validate() error {
	err := multierr.Combine(
		c.Robot.Validate(),
		c.Animation.Validate(),
		c.Runner.Validate(),
	)
	if !c.Headless {
		err = multierr.Append(err, c.Web.Validate())
	}
	return err
}
