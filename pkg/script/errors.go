package script

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is wrapped by parse errors caused by malformed input.
	ErrSyntax = errors.New("script: syntax error")

	// ErrUnknownCall is wrapped when a script calls a name that does not exist.
	ErrUnknownCall = errors.New("script: unknown call")

	// ErrBadRepeat is wrapped when a repeat count is not a non-negative integer.
	ErrBadRepeat = errors.New("script: invalid repeat count")

	// ErrStepLimit is wrapped when a run executes more calls than allowed.
	ErrStepLimit = errors.New("script: step limit exceeded")

	// ErrWaitTooLong is wrapped when wait() asks for more than the allowed time.
	ErrWaitTooLong = errors.New("script: wait too long")

	// ErrInvalidLimits is returned when Limits fail validation.
	ErrInvalidLimits = errors.New("script: invalid limits")
)

// ParseError reports a script that could not be parsed.
type ParseError struct {
	Pos Pos
	Msg string
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("script: parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Unwrap returns the underlying sentinel.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// RuntimeError reports a failure while a parsed script was running.
type RuntimeError struct {
	Pos  Pos
	Call string
	Err  error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Call != "" {
		return fmt.Sprintf("script: runtime error at line %d, column %d in %s: %v", e.Pos.Line, e.Pos.Column, e.Call, e.Err)
	}
	return fmt.Sprintf("script: runtime error at line %d, column %d: %v", e.Pos.Line, e.Pos.Column, e.Err)
}

// Unwrap returns the cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsRuntimeError reports whether err is or wraps a *RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
