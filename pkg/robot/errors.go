package robot

import "errors"

// ErrInvalidConfig is returned when a controller config fails validation.
var ErrInvalidConfig = errors.New("robot: invalid config")
