package robot

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/animation"
	"github.com/teslashibe/go-blobot/pkg/command"
)

// Controller is the robot's state machine. It is Idle until a command
// arrives, then Animating until the command and everything queued behind it
// has played. At most one animation is in flight at any time.
//
// The busy flag, queue and pose are guarded by mu. When an animation
// finishes, the head of the queue is handed over under the same lock, so a
// newly submitted command can never overtake a queued one.
type Controller struct {
	cfg  Config
	anim Animator

	mu       sync.Mutex
	position r3.Vector
	yaw      float64
	busy     bool
	active   *command.Command
	queue    *command.Queue
	gen      uint64             // bumped by Reset; stale animations compare against it
	cancel   context.CancelFunc // cancels the in-flight tween
	idle     chan struct{}      // closed while not busy
	onEvent  []EventFunc

	completed uint64
}

// New creates a controller at the configured initial pose.
func New(cfg Config, anim Animator) *Controller {
	idle := make(chan struct{})
	close(idle)
	return &Controller{
		cfg:      cfg,
		anim:     anim,
		position: cfg.InitialPosition,
		yaw:      cfg.InitialYaw,
		queue:    command.NewQueue(),
		idle:     idle,
	}
}

// OnEvent registers fn for controller events.
func (c *Controller) OnEvent(fn EventFunc) {
	c.mu.Lock()
	c.onEvent = append(c.onEvent, fn)
	c.mu.Unlock()
}

// Config returns the controller config.
func (c *Controller) Config() Config {
	return c.cfg
}

// MoveForward moves distance units along the facing direction.
func (c *Controller) MoveForward(ctx context.Context, distance float64) error {
	return c.Do(ctx, command.Forward(distance))
}

// MoveBackward moves distance units against the facing direction.
func (c *Controller) MoveBackward(ctx context.Context, distance float64) error {
	return c.Do(ctx, command.Backward(distance))
}

// TurnLeft adds degrees to the yaw.
func (c *Controller) TurnLeft(ctx context.Context, degrees float64) error {
	return c.Do(ctx, command.Left(degrees))
}

// TurnRight subtracts degrees from the yaw.
func (c *Controller) TurnRight(ctx context.Context, degrees float64) error {
	return c.Do(ctx, command.Right(degrees))
}

// Submit starts cmd in the background if the robot is idle, otherwise it
// appends cmd to the queue. It never waits for an animation.
func (c *Controller) Submit(cmd command.Command) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}
	gen, queued := c.begin(cmd)
	if queued {
		return true, nil
	}
	go c.drive(gen, cmd, nil)
	return false, nil
}

// Do runs cmd and waits until its own animation has finished. If another
// animation is in flight, cmd is queued and Do returns immediately.
// Canceling ctx stops the wait, not the motion.
func (c *Controller) Do(ctx context.Context, cmd command.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	gen, queued := c.begin(cmd)
	if queued {
		return nil
	}

	first := make(chan struct{})
	go c.drive(gen, cmd, first)

	select {
	case <-first:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin either claims the robot for cmd or queues cmd.
func (c *Controller) begin(cmd command.Command) (gen uint64, queued bool) {
	c.mu.Lock()
	if c.busy {
		c.queue.Enqueue(cmd)
		ev := Event{Kind: EventQueued, Command: &cmd, State: c.stateLocked()}
		handlers := c.onEvent
		c.mu.Unlock()

		log.Debug("command queued", "cmd", cmd.String(), "pending", ev.State.Queued)
		emit(handlers, ev)
		return 0, true
	}

	c.busy = true
	c.active = &cmd
	c.idle = make(chan struct{})
	gen = c.gen
	c.mu.Unlock()
	return gen, false
}

// drive is the robot task: it plays cmd, then keeps draining the queue until
// it is empty or a Reset invalidates gen. first is closed after cmd's own
// animation.
func (c *Controller) drive(gen uint64, cmd command.Command, first chan struct{}) {
	for {
		c.play(gen, cmd)
		if first != nil {
			close(first)
			first = nil
		}

		next, ok := c.finish(gen, cmd)
		if !ok {
			return
		}
		cmd = next
	}
}

// play animates a single command from the current pose.
func (c *Controller) play(gen uint64, cmd command.Command) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	apply := c.targetLocked(gen, cmd)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	ev := Event{Kind: EventStarted, Command: &cmd, State: c.stateLocked()}
	handlers := c.onEvent
	c.mu.Unlock()

	log.Debug("command started", "cmd", cmd.String())
	emit(handlers, ev)

	err := c.anim.Animate(ctx, c.cfg.Duration, apply)
	cancel()

	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, animation.ErrLoopStopped):
		// No more frames will come, so land on the target.
		apply(1)
	default:
		log.Warn("animation failed", "cmd", cmd.String(), "error", err)
		apply(1)
	}
}

// targetLocked computes cmd's start/end pose and returns the per-frame apply
// function. Frames from an animation that Reset has superseded are ignored.
func (c *Controller) targetLocked(gen uint64, cmd command.Command) animation.ApplyFunc {
	switch cmd.Kind {
	case command.MoveForward, command.MoveBackward:
		distance := cmd.Value
		if cmd.Kind == command.MoveBackward {
			distance = -distance
		}
		start := c.position
		end := start.Add(Facing(c.yaw).Mul(distance))
		return func(eased float64) {
			c.mu.Lock()
			if c.gen == gen {
				c.position = animation.LerpVec(start, end, eased)
			}
			c.mu.Unlock()
		}

	default:
		delta := DegToRad(cmd.Value)
		if cmd.Kind == command.TurnRight {
			delta = -delta
		}
		start := c.yaw
		end := start + delta
		return func(eased float64) {
			c.mu.Lock()
			if c.gen == gen {
				c.yaw = animation.Lerp(start, end, eased)
			}
			c.mu.Unlock()
		}
	}
}

// finish marks cmd complete and hands the robot to the next queued command.
// ok is false when the robot went idle or a Reset took over.
func (c *Controller) finish(gen uint64, cmd command.Command) (next command.Command, ok bool) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return command.Command{}, false
	}

	c.completed++
	c.cancel = nil
	c.active = nil
	finished := Event{Kind: EventFinished, Command: &cmd, State: c.stateLocked()}

	next, ok = c.queue.Dequeue()
	if ok {
		c.active = &next
	} else {
		c.busy = false
		close(c.idle)
	}
	finished.State.Queued = c.queue.Len()
	handlers := c.onEvent
	c.mu.Unlock()

	log.Debug("command finished", "cmd", cmd.String(), "next", ok)
	emit(handlers, finished)
	return next, ok
}

// Reset clears the queue, forces Idle and snaps the pose back to the initial
// pose. The in-flight animation, if any, is abandoned.
func (c *Controller) Reset() {
	c.mu.Lock()
	dropped := c.queue.Len()
	c.queue.Clear()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.busy {
		c.busy = false
		close(c.idle)
	}
	c.active = nil
	c.position = c.cfg.InitialPosition
	c.yaw = c.cfg.InitialYaw
	ev := Event{Kind: EventReset, State: c.stateLocked()}
	handlers := c.onEvent
	c.mu.Unlock()

	log.Info("robot reset", "dropped", dropped)
	emit(handlers, ev)
}

// State returns a snapshot of the robot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Pending returns a copy of the queued commands, head first.
func (c *Controller) Pending() []command.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Snapshot()
}

// Snapshot returns the robot state and the queued commands, read under one
// lock so Busy and Active agree with the queue.
func (c *Controller) Snapshot() (State, []command.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(), c.queue.Snapshot()
}

// Completed returns how many animations have run to completion.
func (c *Controller) Completed() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// WaitIdle blocks until no animation is in flight and the queue is empty.
func (c *Controller) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) stateLocked() State {
	s := State{
		Position: c.position,
		Yaw:      c.yaw,
		Busy:     c.busy,
		Queued:   c.queue.Len(),
	}
	if c.active != nil {
		active := *c.active
		s.Active = &active
	}
	return s
}

func emit(handlers []EventFunc, ev Event) {
	for _, fn := range handlers {
		fn(ev)
	}
}
