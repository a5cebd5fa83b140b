package worker

import (
	"github.com/okian/ranklist/internal/adapters/mq/queue"
	"github.com/okian/ranklist/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger shared by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOnProcessed registers a callback run after every batch, with the error the
// batch failed with, if any.
func WithOnProcessed(fn func(b queue.Batch, err error)) PoolOption {
	return func(p *Pool) {
		p.onProcessed = fn
	}
}
