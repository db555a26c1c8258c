package runner

import "errors"

var (
	// ErrNotFound is returned for an unknown run ID.
	ErrNotFound = errors.New("runner: run not found")

	// ErrTooManyRuns is returned when MaxRuns runs are still active.
	ErrTooManyRuns = errors.New("runner: too many active runs")

	// ErrInvalidConfig wraps configuration problems.
	ErrInvalidConfig = errors.New("runner: invalid config")
)
