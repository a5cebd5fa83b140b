package scoring

import "errors"

// Sentinel kinds for regeneration errors.
var (
	ErrNotRegenerable      = errors.New("the ranklist is not supported to regenerate")
	ErrInvalidSorterConfig = errors.New("invalid sorter config")
)
