// Package runner executes blobot scripts in the background and keeps a
// bounded history of their outcomes.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/script"
)

// Notifier is told about every run status change.
type Notifier interface {
	NotifyRun(run Run)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(run Run)

// NotifyRun calls f(run).
func (f NotifierFunc) NotifyRun(run Run) { f(run) }

type entry struct {
	run    Run
	cancel context.CancelFunc
	done   chan struct{}
}

// Runner starts script runs against one robot.
type Runner struct {
	cfg      Config
	robot    script.Robot
	clk      clock.Clock
	notifier Notifier

	mu    sync.Mutex
	runs  map[string]*entry
	order []string // oldest first
	wg    sync.WaitGroup
}

// New creates a runner. clk and notifier may be nil.
func New(cfg Config, robot script.Robot, clk clock.Clock, notifier Notifier) *Runner {
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{
		cfg:      cfg,
		robot:    robot,
		clk:      clk,
		notifier: notifier,
		runs:     make(map[string]*entry),
	}
}

// Start parses src and runs it in the background. A *script.ParseError
// is returned as is and no run is recorded.
func (r *Runner) Start(src string) (Run, error) {
	prog, err := script.Parse(src)
	if err != nil {
		return Run{}, err
	}

	if r.cfg.CancelPrevious {
		r.CancelAll()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		run: Run{
			ID:        uuid.NewString(),
			Source:    src,
			Status:    StatusPending,
			CreatedAt: r.clk.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	if err := r.admitLocked(); err != nil {
		r.mu.Unlock()
		cancel()
		return Run{}, err
	}
	r.runs[e.run.ID] = e
	r.order = append(r.order, e.run.ID)
	snapshot := e.run
	r.wg.Add(1)
	r.mu.Unlock()

	log.Info("script run started", "run", snapshot.ID, "steps", prog.Steps())
	r.notify(snapshot)

	go r.execute(ctx, e, prog)
	return snapshot, nil
}

// admitLocked makes room for one more run by evicting finished ones.
func (r *Runner) admitLocked() error {
	for len(r.order) >= r.cfg.MaxRuns {
		evicted := false
		for i, id := range r.order {
			if r.runs[id].run.Status.Done() {
				delete(r.runs, id)
				r.order = append(r.order[:i], r.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return fmt.Errorf("%w (%d)", ErrTooManyRuns, r.cfg.MaxRuns)
		}
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, e *entry, prog *script.Program) {
	defer r.wg.Done()
	defer close(e.done)
	defer e.cancel()

	in := script.NewInterpreter(r.robot, r.clk, r.cfg.Limits)
	in.OnStep(func(*script.Call) {
		r.mu.Lock()
		e.run.Steps++
		r.mu.Unlock()
	})

	r.update(e, func(run *Run) { run.Status = StatusRunning })

	err := in.Run(ctx, prog)

	final := r.update(e, func(run *Run) {
		now := r.clk.Now()
		run.EndedAt = &now
		if err != nil {
			run.fail(err)
			return
		}
		run.Status = StatusCompleted
	})

	switch final.Status {
	case StatusFailed:
		log.Warn("script run failed", "run", final.ID, "error", final.Error, "steps", final.Steps)
	default:
		log.Info("script run ended", "run", final.ID, "status", string(final.Status), "steps", final.Steps)
	}
}

// update applies fn to e's run under the lock and notifies the result.
func (r *Runner) update(e *entry, fn func(run *Run)) Run {
	r.mu.Lock()
	fn(&e.run)
	snapshot := e.run
	r.mu.Unlock()
	r.notify(snapshot)
	return snapshot
}

func (r *Runner) notify(run Run) {
	if r.notifier != nil {
		r.notifier.NotifyRun(run)
	}
}

// Get returns the run with the given ID.
func (r *Runner) Get(id string) (Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.run, nil
}

// List returns all known runs, oldest first.
func (r *Runner) List() []Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Run, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.runs[id].run)
	}
	return out
}

// Cancel stops a run. Motions it already issued keep playing.
// Cancelling a finished run is a no-op.
func (r *Runner) Cancel(id string) (Run, error) {
	r.mu.Lock()
	e, ok := r.runs[id]
	if !ok {
		r.mu.Unlock()
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	snapshot := e.run
	r.mu.Unlock()

	if !snapshot.Status.Done() {
		e.cancel()
		<-e.done
	}
	return r.Get(id)
}

// CancelAll stops every active run and waits for them to end.
func (r *Runner) CancelAll() {
	r.mu.Lock()
	var active []*entry
	for _, e := range r.runs {
		if !e.run.Status.Done() {
			active = append(active, e)
		}
	}
	r.mu.Unlock()

	for _, e := range active {
		e.cancel()
	}
	for _, e := range active {
		<-e.done
	}
}

// Active returns the number of runs that have not ended.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.runs {
		if !e.run.Status.Done() {
			n++
		}
	}
	return n
}

// Wait blocks until the run ends or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (Run, error) {
	r.mu.Lock()
	e, ok := r.runs[id]
	r.mu.Unlock()
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	select {
	case <-e.done:
		return r.Get(id)
	case <-ctx.Done():
		return Run{}, ctx.Err()
	}
}

// Close cancels all runs and waits for their goroutines.
func (r *Runner) Close() {
	r.CancelAll()
	r.wg.Wait()
}
