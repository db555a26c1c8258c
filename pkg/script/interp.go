package script

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/command"
)

// Robot is what a running script drives. robot.Controller implements it.
type Robot interface {
	// Submit starts or queues cmd without waiting.
	Submit(cmd command.Command) (queued bool, err error)
	// Do starts cmd and waits for its animation, or queues it.
	Do(ctx context.Context, cmd command.Command) error
}

// Limits bound a single run.
type Limits struct {
	// MaxSteps is the maximum number of calls one run may execute.
	MaxSteps int `json:"max_steps"`
	// MaxWait is the longest single wait() allowed.
	MaxWait time.Duration `json:"max_wait"`
}

// DefaultLimits returns the limits used by the server.
func DefaultLimits() Limits {
	return Limits{
		MaxSteps: 10000,
		MaxWait:  time.Minute,
	}
}

// Validate checks the limits.
func (l Limits) Validate() error {
	var err error
	if l.MaxSteps <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidLimits, l.MaxSteps))
	}
	if l.MaxWait <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: max_wait must be positive, got %v", ErrInvalidLimits, l.MaxWait))
	}
	return err
}

// StepFunc is called before each call executes.
type StepFunc func(c *Call)

// Interpreter executes programs against a Robot. wait() sleeps on the
// interpreter's clock and suspends only the running script.
type Interpreter struct {
	robot  Robot
	clk    clock.Clock
	limits Limits
	onStep StepFunc
}

// NewInterpreter creates an interpreter. A nil clk uses the wall clock.
func NewInterpreter(robot Robot, clk clock.Clock, limits Limits) *Interpreter {
	if clk == nil {
		clk = clock.New()
	}
	return &Interpreter{robot: robot, clk: clk, limits: limits}
}

// OnStep registers fn to observe each executed call.
func (in *Interpreter) OnStep(fn StepFunc) {
	in.onStep = fn
}

// Run executes prog until it finishes, fails or ctx is done. Errors are
// *RuntimeError. Commands already submitted keep running after an error.
func (in *Interpreter) Run(ctx context.Context, prog *Program) error {
	steps := 0
	return in.exec(ctx, prog.Body, &steps)
}

func (in *Interpreter) exec(ctx context.Context, body []Node, steps *int) error {
	for _, node := range body {
		switch n := node.(type) {
		case *Call:
			if err := in.call(ctx, n, steps); err != nil {
				return err
			}
		case *Repeat:
			// A body without calls has no effect. Skipping it keeps every
			// iteration that does run charged against MaxSteps.
			if !n.hasCalls() {
				continue
			}
			for i := 0; i < n.Count; i++ {
				if err := ctx.Err(); err != nil {
					return &RuntimeError{Pos: n.At, Err: err}
				}
				if err := in.exec(ctx, n.Body, steps); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (in *Interpreter) call(ctx context.Context, c *Call, steps *int) error {
	if err := ctx.Err(); err != nil {
		return &RuntimeError{Pos: c.At, Call: c.Name, Err: err}
	}
	*steps++
	if *steps > in.limits.MaxSteps {
		return &RuntimeError{Pos: c.At, Call: c.Name, Err: fmt.Errorf("%w (%d)", ErrStepLimit, in.limits.MaxSteps)}
	}
	if in.onStep != nil {
		in.onStep(c)
	}

	if c.Name == CallWait {
		return in.wait(ctx, c)
	}

	cmd := toCommand(c)
	log.Debug("script call", "call", cmd.String(), "await", c.Await, "pos", c.At.String())

	var err error
	if c.Await {
		err = in.robot.Do(ctx, cmd)
	} else {
		_, err = in.robot.Submit(cmd)
	}
	if err != nil {
		return &RuntimeError{Pos: c.At, Call: c.Name, Err: err}
	}
	return nil
}

// wait sleeps for c.Arg milliseconds. Negative waits do not sleep.
func (in *Interpreter) wait(ctx context.Context, c *Call) error {
	d := time.Duration(c.Arg * float64(time.Millisecond))
	if d > in.limits.MaxWait || c.Arg > float64(in.limits.MaxWait/time.Millisecond) {
		return &RuntimeError{Pos: c.At, Call: c.Name, Err: fmt.Errorf("%w: %gms exceeds %v", ErrWaitTooLong, c.Arg, in.limits.MaxWait)}
	}
	if d <= 0 {
		return nil
	}

	timer := in.clk.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &RuntimeError{Pos: c.At, Call: c.Name, Err: ctx.Err()}
	}
}

func toCommand(c *Call) command.Command {
	switch c.Name {
	case CallMoveForward:
		return command.Forward(c.Arg)
	case CallMoveBackward:
		return command.Backward(c.Arg)
	case CallTurnLeft:
		return command.Left(c.Arg)
	default:
		return command.Right(c.Arg)
	}
}
