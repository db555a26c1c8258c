package animation

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/teslashibe/go-blobot/internal/log"
)

// FrameFunc is called once per frame after all tweens have advanced.
type FrameFunc func(now time.Time)

// Loop is the render loop. Every tick it advances each active tween once and
// then notifies frame listeners. All motion progress happens here.
type Loop struct {
	clk clock.Clock
	cfg Config

	mu        sync.Mutex
	tweens    []*Tween
	listeners []FrameFunc
	frames    uint64

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewLoop creates a loop on clk. A nil clk uses the wall clock.
func NewLoop(cfg Config, clk clock.Clock) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		clk:     clk,
		cfg:     cfg,
		stopped: make(chan struct{}),
	}
}

// Clock returns the clock the loop samples.
func (l *Loop) Clock() clock.Clock {
	return l.clk
}

// OnFrame registers fn to run after every frame.
func (l *Loop) OnFrame(fn FrameFunc) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Run ticks the loop at the configured frame rate until ctx is done.
// Animations still waiting when Run returns fail with ErrLoopStopped.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clk.Ticker(l.cfg.FrameInterval())
	defer ticker.Stop()
	defer l.stopOnce.Do(func() { close(l.stopped) })

	log.Info("render loop started", "fps", l.cfg.FrameRate)

	for {
		select {
		case <-ctx.Done():
			log.Info("render loop stopped", "frames", l.Frames())
			return ctx.Err()
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step advances every active tween by one frame at the clock's current time.
func (l *Loop) Step() {
	now := l.clk.Now()

	l.mu.Lock()
	active := make([]*Tween, len(l.tweens))
	copy(active, l.tweens)
	listeners := l.listeners
	l.frames++
	l.mu.Unlock()

	var finished []*Tween
	for _, tw := range active {
		if tw.Step(now) {
			finished = append(finished, tw)
		}
	}
	for _, tw := range finished {
		l.remove(tw)
	}

	for _, fn := range listeners {
		fn(now)
	}
}

// Animate runs a tween of the given duration and suspends the caller until it
// has applied its final frame. The first frame is applied before Animate
// registers the tween, so a zero duration completes without waiting for a
// tick. If ctx ends first the tween is dropped and ctx.Err() is returned.
func (l *Loop) Animate(ctx context.Context, duration time.Duration, apply ApplyFunc) error {
	tw := NewTween(l.clk.Now(), duration, apply)
	if tw.Step(l.clk.Now()) {
		return nil
	}

	l.mu.Lock()
	l.tweens = append(l.tweens, tw)
	l.mu.Unlock()

	select {
	case <-tw.Done():
		return nil
	case <-ctx.Done():
		l.remove(tw)
		return ctx.Err()
	case <-l.stopped:
		l.remove(tw)
		return ErrLoopStopped
	}
}

// Active returns the number of tweens in flight.
func (l *Loop) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tweens)
}

// Frames returns the number of frames stepped so far.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *Loop) remove(tw *Tween) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, t := range l.tweens {
		if t == tw {
			l.tweens = append(l.tweens[:i], l.tweens[i+1:]...)
			return
		}
	}
}
