// Package app wires the render loop, robot controller, script runner and
// web server into one process.
package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/animation"
	"github.com/teslashibe/go-blobot/pkg/robot"
	"github.com/teslashibe/go-blobot/pkg/runner"
	"github.com/teslashibe/go-blobot/pkg/web"
)

// App owns every long-lived component.
type App struct {
	cfg Config

	Loop       *animation.Loop
	Controller *robot.Controller
	Runner     *runner.Runner
	Server     *web.Server // nil when headless
}

// New validates cfg and builds the components. Nothing runs until Run.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}
	a.Loop = animation.NewLoop(cfg.Animation, nil)
	a.Controller = robot.New(cfg.Robot, a.Loop)
	a.Runner = runner.New(cfg.Runner, a.Controller, a.Loop.Clock(), runner.NotifierFunc(a.notifyRun))

	if !cfg.Headless {
		wcfg := cfg.Web
		wcfg.FrameRate = cfg.Animation.FrameRate
		a.Server = web.NewServer(wcfg, a.Controller, a.Runner)
		a.Controller.OnEvent(a.Server.HandleEvent)
		a.Loop.OnFrame(func(time.Time) {
			a.Server.PublishState(a.Loop.Frames())
		})
	}
	return a, nil
}

func (a *App) notifyRun(run runner.Run) {
	if a.Server != nil {
		a.Server.NotifyRun(run)
	}
}

// Config returns the validated config.
func (a *App) Config() Config {
	return a.cfg
}

// Run drives the render loop, websocket hubs and web server until ctx is
// done or one of them fails. Active script runs are cancelled on return.
func (a *App) Run(ctx context.Context) error {
	defer a.Runner.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(a.Loop.Run(ctx))
	})
	if a.Server != nil {
		for _, h := range a.Server.Hubs() {
			h := h
			g.Go(func() error { return h.Run(ctx) })
		}
		g.Go(func() error { return a.Server.Run(ctx) })
	}

	log.Info("blobot running", "headless", a.Server == nil, "fps", a.cfg.Animation.FrameRate)
	return ignoreCanceled(g.Wait())
}

// Execute runs src to completion and waits for every motion it issued to
// finish. The loop must be running.
func (a *App) Execute(ctx context.Context, src string) (runner.Run, error) {
	run, err := a.Runner.Start(src)
	if err != nil {
		return runner.Run{}, err
	}
	run, err = a.Runner.Wait(ctx, run.ID)
	if err != nil {
		return run, err
	}
	if err := a.Controller.WaitIdle(ctx); err != nil {
		return run, err
	}
	return run, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
