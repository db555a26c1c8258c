package command

import "errors"

// ErrUnknownKind is returned when a motion kind is not recognised.
var ErrUnknownKind = errors.New("command: unknown motion kind")
