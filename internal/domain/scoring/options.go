package scoring

import (
	"github.com/okian/ranklist/pkg/duration"
	"github.com/okian/ranklist/pkg/logger"
)

// Option applies a configuration option to the Regenerator.
type Option func(*Regenerator)

// WithLogger sets the diagnostic sink for integrity faults.
func WithLogger(l logger.Logger) Option {
	return func(r *Regenerator) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDefaultPenalty replaces the penalty used when a document does not set one.
func WithDefaultPenalty(p duration.TimeDuration) Option {
	return func(r *Regenerator) {
		if p.Value > 0 && p.Unit.Valid() {
			r.defaults.Penalty = p
		}
	}
}
