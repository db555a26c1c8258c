package animation

import (
	"sync"
	"time"
)

// ApplyFunc receives the eased interpolation factor for one frame.
type ApplyFunc func(eased float64)

// Tween drives one start→end interpolation over a fixed duration.
// The owner supplies the start/end values through the ApplyFunc closure so
// the same tween serves scalar yaw and vector position alike.
type Tween struct {
	start    time.Time
	duration time.Duration
	apply    ApplyFunc

	mu       sync.Mutex
	progress float64
	done     chan struct{}
	finished bool
}

// NewTween creates a tween starting at start.
func NewTween(start time.Time, duration time.Duration, apply ApplyFunc) *Tween {
	return &Tween{
		start:    start,
		duration: duration,
		apply:    apply,
		done:     make(chan struct{}),
	}
}

// Step evaluates the tween at now, applies the eased value and reports
// whether the tween has reached progress 1. Progress never decreases, even if
// now is earlier than a previous call.
func (t *Tween) Step(now time.Time) bool {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return true
	}
	p := Progress(now.Sub(t.start), t.duration)
	if p < t.progress {
		p = t.progress
	}
	t.progress = p
	t.mu.Unlock()

	if t.apply != nil {
		t.apply(Ease(p))
	}

	if p < 1 {
		return false
	}

	t.mu.Lock()
	if !t.finished {
		t.finished = true
		close(t.done)
	}
	t.mu.Unlock()
	return true
}

// Progress returns the last evaluated linear progress in [0, 1].
func (t *Tween) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Done is closed once the tween has applied its final frame.
func (t *Tween) Done() <-chan struct{} {
	return t.done
}
