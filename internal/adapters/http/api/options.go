package api

import "github.com/okian/ranklist/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBatchSize caps the number of solutions accepted in one batch.
func WithMaxBatchSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithMaxDocumentBytes caps request body sizes.
func WithMaxDocumentBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxDocumentBytes = n
		}
	}
}

// WithLogger sets the logger handlers report failures to.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
