package runner

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-blobot/pkg/script"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// Run is a snapshot of one script execution.
type Run struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Status    Status     `json:"status"`
	Steps     int        `json:"steps"`
	Error     string     `json:"error,omitempty"`
	Line      int        `json:"line,omitempty"`
	Column    int        `json:"column,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// fail records err on the run. Cancellation is not a failure.
func (r *Run) fail(err error) {
	if errors.Is(err, context.Canceled) {
		r.Status = StatusCanceled
		return
	}
	r.Status = StatusFailed
	r.Error = err.Error()
	var re *script.RuntimeError
	if errors.As(err, &re) {
		r.Line, r.Column = re.Pos.Line, re.Pos.Column
	}
}

// Elapsed is how long the run took, or has been running.
func (run Run) Elapsed(now time.Time) time.Duration {
	if run.EndedAt != nil {
		return run.EndedAt.Sub(run.CreatedAt)
	}
	return now.Sub(run.CreatedAt)
}
