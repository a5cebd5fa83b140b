package series

import "github.com/okian/ranklist/pkg/logger"

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithLogger sets the sink unknown presets are reported to.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}
