package loadgen

import "github.com/okian/ranklist/pkg/logger"

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger progress is reported to.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
