package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/logger"
)

// Runner timing and retry constants.
const (
	drainPollInterval = 100 * time.Millisecond
	maxSubmitRetries  = 10
	outputPermission  = 0o600
	dirPermission     = 0o750
)

// ErrMismatch reports that a served ranklist differs from its regeneration.
var ErrMismatch = errors.New("incremental and full regeneration disagree")

// Runner executes load runs against one service.
type Runner struct {
	cfg    Config
	client *client
	logger logger.Logger

	accepted  atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
	submitted atomic.Int64
}

type ackResponse struct {
	BatchID   string `json:"batch_id"`
	Duplicate bool   `json:"duplicate"`
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, client: newClient(cfg.BaseURL, cfg.Timeout), logger: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run creates the contests, submits their solutions, waits for the service to
// apply them and verifies every contest. It returns ErrMismatch when any served
// ranklist differs from a full regeneration of its own solutions.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now(), Contests: r.cfg.Contests}
	r.logger.Info(ctx, "starting ranklist load run",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.Int("contests", r.cfg.Contests),
		logger.Int("users", r.cfg.Users),
		logger.Int("problems", r.cfg.Problems),
		logger.Int("solutions", r.cfg.Solutions),
		logger.Int("batchSize", r.cfg.BatchSize),
	)

	if err := r.checkServiceHealth(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	rng := rand.New(rand.NewPCG(r.cfg.Seed, r.cfg.Seed^0x9e3779b97f4a7c15))
	runID := time.Now().UTC().Format("20060102-150405")
	contests := make([]contest, r.cfg.Contests)
	for i := range contests {
		contests[i] = generateContest(rng, &r.cfg, fmt.Sprintf("load-%s-%03d", runID, i+1))
	}

	baseline, err := r.processed(ctx)
	if err != nil {
		return nil, err
	}

	// Contests run concurrently; batches within one contest go out in order.
	g, gctx := errgroup.WithContext(ctx)
	for i := range contests {
		c := contests[i]
		g.Go(func() error { return r.drive(gctx, c) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := r.waitForDrain(ctx, baseline+r.accepted.Load()); err != nil {
		return nil, err
	}

	for _, c := range contests {
		n, err := r.verify(ctx, c)
		if err != nil {
			return nil, err
		}
		stats.Mismatches += n
	}

	stats.SolutionsSubmitted = int(r.submitted.Load())
	stats.BatchesAccepted = int(r.accepted.Load())
	stats.BatchesDuplicate = int(r.duplicate.Load())
	stats.BatchesFailed = int(r.failed.Load())
	stats.BatchesRetried = int(r.retried.Load())
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.displayFinalStats(ctx, stats)

	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d rows", ErrMismatch, stats.Mismatches)
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func (r *Runner) checkServiceHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := r.client.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	// The health endpoint serves Prometheus metrics; any 200 counts as healthy.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// drive stores c and submits its batches one after another.
func (r *Runner) drive(ctx context.Context, c contest) error {
	if _, err := r.client.do(ctx, http.MethodPut, "/ranklists/"+c.id, c.doc, nil); err != nil {
		return fmt.Errorf("store contest %s: %w", c.id, err)
	}
	for n, batch := range c.batches {
		req := struct {
			ID        string        `json:"id"`
			Solutions []model.Event `json:"solutions"`
		}{ID: fmt.Sprintf("%s-%05d", c.id, n), Solutions: batch}

		var ack ackResponse
		op := func() error {
			_, err := r.client.do(ctx, http.MethodPost, "/ranklists/"+c.id+"/solutions", req, &ack)
			if errors.Is(err, errBackpressure) {
				r.retried.Add(1)
				return err
			}
			if err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxSubmitRetries), ctx)
		if err := backoff.Retry(op, policy); err != nil {
			r.failed.Add(1)
			r.logger.Warn(ctx, "solution batch failed",
				logger.String("ranklist_id", c.id),
				logger.String("batch_id", req.ID),
				logger.Error(err),
			)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		r.submitted.Add(int64(len(batch)))
		if ack.Duplicate {
			r.duplicate.Add(1)
		} else {
			r.accepted.Add(1)
		}
	}
	r.logger.Debug(ctx, "contest submitted", logger.String("ranklist_id", c.id), logger.Int("batches", len(c.batches)))
	return nil
}

// processed returns how many batches the service's workers have handled.
func (r *Runner) processed(ctx context.Context) (int64, error) {
	var stats struct {
		Processed int64 `json:"batchesProcessed"`
		Failed    int64 `json:"batchesFailed"`
	}
	if _, err := r.client.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return 0, fmt.Errorf("read stats: %w", err)
	}
	return stats.Processed + stats.Failed, nil
}

// waitForDrain polls the service until target batches have been handled.
func (r *Runner) waitForDrain(ctx context.Context, target int64) error {
	r.logger.Info(ctx, "waiting for batches to be applied")
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Wait)
	defer cancel()

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		done, err := r.processed(ctx)
		if err != nil {
			return err
		}
		if done >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d of %d batches applied: %w", done, target, ctx.Err())
		case <-ticker.C:
		}
	}
}

// save writes rl to the output directory, if one is configured.
func (r *Runner) save(ctx context.Context, id string, rl *model.Ranklist) error {
	if r.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.cfg.OutputDir, dirPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	b, err := json.Marshal(rl)
	if err != nil {
		return err
	}
	path := filepath.Join(r.cfg.OutputDir, id+".json")
	if err := os.WriteFile(path, b, outputPermission); err != nil {
		return err
	}
	r.logger.Debug(ctx, "ranklist saved", logger.String("path", path))
	return nil
}

// displayFinalStats logs the run statistics.
func (r *Runner) displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.SolutionsSubmitted) / stats.Duration.Seconds()
	}
	r.logger.Info(ctx, "final statistics",
		logger.Int("contests", stats.Contests),
		logger.Int("solutionsSubmitted", stats.SolutionsSubmitted),
		logger.Int("batchesAccepted", stats.BatchesAccepted),
		logger.Int("batchesDuplicate", stats.BatchesDuplicate),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("batchesRetried", stats.BatchesRetried),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("solutionsPerSecond", perSecond),
	)
}
