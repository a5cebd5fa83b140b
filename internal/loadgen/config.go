// Package loadgen drives a running ranklist service with generated contests
// and checks that incrementally applied solutions match a full regeneration.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Contests  int           // Ranklists driven concurrently
	Users     int           // Rows per contest
	Problems  int           // Problems per contest
	Solutions int           // Solutions submitted per contest
	BatchSize int           // Solutions per POST
	Timeout   time.Duration // HTTP request timeout
	Wait      time.Duration // How long to wait for the queue to drain
	Seed      uint64        // Seed for contest generation
	OutputDir string        // Where final documents are written, if set
}

// Stats holds run statistics.
type Stats struct {
	Contests           int
	SolutionsSubmitted int
	BatchesAccepted    int
	BatchesDuplicate   int
	BatchesFailed      int
	BatchesRetried     int
	Mismatches         int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
