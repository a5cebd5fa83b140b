// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the number of waiting solution batches.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of workers applying solution batches.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many batch IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxBatchSize caps the solutions accepted in one POST.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxDocumentBytes caps request bodies.
	MaxDocumentBytes int64 `koanf:"max_document_bytes"`

	// PenaltyMinutes is the penalty per rejected try when a document's sorter
	// config names none.
	PenaltyMinutes float64 `koanf:"penalty_minutes"`

	// SnapshotDir, when set, is scanned for *.json ranklists at startup.
	SnapshotDir string `koanf:"snapshot_dir"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       50_000,
		MaxBatchSize:     10_000,
		MaxDocumentBytes: 64 << 20,
		PenaltyMinutes:   20,
	}
}
