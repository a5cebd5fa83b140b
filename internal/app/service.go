// Package service wires the store, regeneration engine and ingestion pipeline
// behind the operations the HTTP API and CLI need.
package service

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/ranklist/internal/adapters/mq/queue"
	workerpool "github.com/okian/ranklist/internal/adapters/mq/worker"
	"github.com/okian/ranklist/internal/adapters/repository"
	"github.com/okian/ranklist/internal/domain/dedupe"
	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/scoring"
	"github.com/okian/ranklist/internal/domain/solutions"
	"github.com/okian/ranklist/internal/domain/standings"
	"github.com/okian/ranklist/pkg/duration"
	"github.com/okian/ranklist/pkg/logger"
	"github.com/okian/ranklist/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 50000
)

// Service implements the API dependencies for the ranklist system.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	regen     *scoring.Regenerator
	converter *standings.Converter

	workerCount    int
	queueSize      int
	dedupeSize     int
	defaultPenalty duration.TimeDuration
	snapshotDir    string

	started bool
	logger  logger.Logger
}

// New constructs a Service. Ranklists can be stored and read right away;
// solution batches are accepted once Start has run.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.regen = scoring.NewRegenerator(
		scoring.WithLogger(s.logger.Named("scoring")),
		scoring.WithDefaultPenalty(s.defaultPenalty),
	)
	s.converter = standings.NewConverter(standings.WithLogger(s.logger.Named("series")))
	return s
}

// Start loads the snapshot directory, if any, and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting ranklist service...")

	if s.snapshotDir != "" {
		n, err := repository.LoadDir(ctx, s.store, s.snapshotDir)
		if err != nil {
			return fmt.Errorf("load snapshots: %w", err)
		}
		s.logger.Info(ctx, "loaded ranklist snapshots",
			logger.String("dir", s.snapshotDir),
			logger.Int("count", n),
		)
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.regen, s.store,
		workerpool.WithPoolLogger(s.logger.Named("worker")),
	)
	// workers outlive the request that started them
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "ranklist service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued batches and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping ranklist service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "ranklist service stopped")
	return err
}

// PutRanklist stores rl under id. With regenerate set, rl is first rebuilt from
// the solutions its own rows carry, which requires a regenerable document.
func (s *Service) PutRanklist(ctx context.Context, id string, rl *model.Ranklist, regenerate bool) (*model.Ranklist, error) {
	if rl == nil {
		return nil, repository.ErrNilUpdate
	}
	if slices.Contains(rl.Rows, nil) {
		// null rows in the document are dropped so every stored row has a user
		next := *rl
		next.Rows = slices.DeleteFunc(slices.Clone(rl.Rows), func(r *model.Row) bool { return r == nil })
		rl = &next
	}
	if regenerate {
		out, err := s.regen.Regenerate(ctx, rl, solutions.Extract(rl.Rows))
		if err != nil {
			return nil, err
		}
		rl = out
	}
	if err := s.store.Put(ctx, id, rl); err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "ranklist stored",
		logger.String("ranklist_id", id),
		logger.Int("rows", len(rl.Rows)),
	)
	return rl, nil
}

// Static returns the latest version of a ranklist with rank values attached.
func (s *Service) Static(ctx context.Context, id string) (*model.StaticRanklist, error) {
	rl, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.converter.Convert(ctx, rl), nil
}

// StaticUntil returns the ranklist as it stood at until: every solution submitted
// later is dropped and the rest are regenerated.
func (s *Service) StaticUntil(ctx context.Context, id string, until duration.TimeDuration) (*model.StaticRanklist, error) {
	start := time.Now()
	rl, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := Until(ctx, s.regen, rl, until)
	if err != nil {
		return nil, err
	}
	metrics.RecordRegeneration(metrics.ModeUntil)
	metrics.RecordRegenerationDuration(metrics.ModeUntil, float64(time.Since(start).Microseconds())/1000)
	return s.converter.Convert(ctx, out), nil
}

// Until regenerates rl from the solutions submitted at or before until.
func Until(ctx context.Context, regen *scoring.Regenerator, rl *model.Ranklist, until duration.TimeDuration) (*model.Ranklist, error) {
	if err := scoring.CheckRegenerable(rl); err != nil {
		return nil, err
	}
	events := solutions.SelectUntil(solutions.Extract(rl.Rows), until)
	return regen.Regenerate(ctx, rl, events)
}

// SubmitSolutions queues events for incremental application to ranklist id.
// batchID makes retries idempotent; an empty one is replaced by a fresh UUID.
// It returns the batch ID and whether the batch had already been accepted.
func (s *Service) SubmitSolutions(ctx context.Context, id, batchID string, events []model.Event) (string, bool, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return "", false, fmt.Errorf("%w: service not started", eventqueue.ErrQueueClosed)
	}

	rl, err := s.store.Get(ctx, id)
	if err != nil {
		return "", false, err
	}
	if err := scoring.CheckRegenerable(rl); err != nil {
		return "", false, err
	}

	if batchID == "" {
		batchID = uuid.NewString()
	}
	key := id + "/" + batchID
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate solution batch, skipping",
			logger.String("ranklist_id", id),
			logger.String("batch_id", batchID),
		)
		return batchID, true, nil
	}

	err = q.Enqueue(ctx, eventqueue.Batch{ID: batchID, RanklistID: id, Events: events})
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return "", false, err
	}
	return batchID, false, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	ranklists := s.store.Count(ctx)
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"dedupeItems": s.deduper.Size(),
		"ranklists":   ranklists,
	}
	metrics.UpdateRanklistCount(ranklists)

	if s.started {
		total, failed := s.pool.Processed()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["batchesProcessed"] = total
		stats["batchesFailed"] = failed
	}
	return stats
}
