package duration

import "errors"

// Sentinel kinds for duration errors.
var (
	ErrInvalidUnit     = errors.New("invalid time unit")
	ErrInvalidDuration = errors.New("invalid time duration")
)
