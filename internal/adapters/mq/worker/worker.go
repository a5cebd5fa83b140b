// Package worker applies queued solution batches to stored ranklists.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/ranklist/internal/adapters/mq/queue"
	"github.com/okian/ranklist/internal/adapters/repository"
	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/logger"
	"github.com/okian/ranklist/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
	laneBuffer          = 16
)

// Updater replaces a stored ranklist with a version derived from the latest one.
type Updater interface {
	Update(ctx context.Context, id string, fn repository.UpdateFunc) error
}

// Applier folds events into the rows of a ranklist without mutating it.
type Applier interface {
	ApplyIncremental(ctx context.Context, rl *model.Ranklist, events []model.Event) ([]*model.Row, error)
}

// Source is where a worker reads batches from.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Batch
}

// Worker processes batches.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or its source is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after the batch in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker applies batches one at a time.
type InMemoryWorker struct {
	source  Source
	applier Applier
	updater Updater
	name    string

	shutdown chan struct{}
	done     chan struct{}

	onProcessed func(queue.Batch, error)
	logger      logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(source Source, applier Applier, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:   source,
		applier:  applier,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	batches := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			err := w.process(ctx, b)
			if err != nil {
				w.logger.Error(ctx, "error applying solution batch",
					logger.String("batch_id", b.ID),
					logger.String("ranklist_id", b.RanklistID),
					logger.Error(err),
				)
			}
			if w.onProcessed != nil {
				w.onProcessed(b, err)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process folds one batch into the latest snapshot of its ranklist.
func (w *InMemoryWorker) process(ctx context.Context, b queue.Batch) error { //nolint:gocritic // hugeParam: Batch travels by value through the channel
	err := w.updater.Update(ctx, b.RanklistID, func(cur *model.Ranklist) (*model.Ranklist, error) {
		rows, err := w.applier.ApplyIncremental(ctx, cur, b.Events)
		if err != nil {
			return nil, err
		}
		next := *cur
		next.Rows = rows
		return &next, nil
	})
	if err != nil {
		metrics.RecordBatchProcessed("failed")
		metrics.RecordErrorByComponent("worker", "apply_error")
		return fmt.Errorf("apply batch %s: %w", b.ID, err)
	}
	metrics.RecordBatchProcessed("applied")
	return nil
}

// lane is one worker's private source.
type lane chan queue.Batch

func (l lane) Dequeue(context.Context) <-chan queue.Batch { return l }

// Pool runs a fixed set of workers. Batches are routed by ranklist id, so all
// batches of one ranklist go to the same worker in enqueue order.
type Pool struct {
	workers []*InMemoryWorker
	lanes   []lane
	source  Source

	dispatched chan struct{}
	processed  atomic.Int64
	failed     atomic.Int64

	onProcessed func(queue.Batch, error)
	logger      logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, source Source, applier Applier, updater Updater, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:    make([]*InMemoryWorker, workerCount),
		lanes:      make([]lane, workerCount),
		source:     source,
		dispatched: make(chan struct{}),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range workerCount {
		p.lanes[i] = make(lane, laneBuffer)
		p.workers[i] = NewInMemoryWorker(p.lanes[i], applier, updater,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		p.workers[i].onProcessed = p.record
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts the dispatcher and all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.dispatch(ctx)
}

func (p *Pool) dispatch(ctx context.Context) {
	defer close(p.dispatched)
	defer func() {
		for _, l := range p.lanes {
			close(l)
		}
	}()

	for b := range p.source.Dequeue(ctx) {
		l := p.lanes[xxhash.Sum64String(b.RanklistID)%uint64(len(p.lanes))]
		select {
		case l <- b:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) record(b queue.Batch, err error) { //nolint:gocritic // hugeParam: matches the worker callback
	p.processed.Add(1)
	if err != nil {
		p.failed.Add(1)
	}
	if p.onProcessed != nil {
		p.onProcessed(b, err)
	}
}

// Processed returns how many batches workers finished, and how many of them failed.
func (p *Pool) Processed() (total, failed int64) {
	return p.processed.Load(), p.failed.Load()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Shutdown closes the source, lets workers drain what was already queued and
// waits for them or for ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	select {
	case <-p.dispatched:
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "dispatcher shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
