package service

import (
	"github.com/okian/ranklist/internal/adapters/repository"
	"github.com/okian/ranklist/pkg/duration"
	"github.com/okian/ranklist/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of workers applying solution batches.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting solution batches.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many batch IDs are remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaultPenalty sets the penalty used for documents whose sorter config has
// none.
func WithDefaultPenalty(p duration.TimeDuration) Option {
	return func(s *Service) {
		s.defaultPenalty = p
	}
}

// WithSnapshotDir loads every ranklist in dir when the service starts.
func WithSnapshotDir(dir string) Option {
	return func(s *Service) {
		s.snapshotDir = dir
	}
}

// WithStore replaces the in-memory snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
