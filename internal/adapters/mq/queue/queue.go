// Package queue carries solution batches from the API to the workers that fold
// them into stored ranklists.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Batch is one accepted submission of solutions for a ranklist.
type Batch struct {
	ID         string
	RanklistID string
	Events     []model.Event
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a batch. Returns ErrQueueFull or ErrQueueClosed when refused.
	Enqueue(ctx context.Context, b Batch) error

	// Dequeue returns a channel that receives batches in enqueue order. It is
	// closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Batch

	// Len returns the current number of queued batches.
	Len(ctx context.Context) int

	// Close stops accepting batches.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	batches  chan Batch
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.batches = make(chan Batch, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Capacity returns the maximum number of waiting batches.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Enqueue adds a batch to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b Batch) error { //nolint:gocritic // hugeParam: Batch travels by value through the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordBatchRejected("closed")
		return ErrQueueClosed
	}
	if b.EnqueuedAt.IsZero() {
		b.EnqueuedAt = time.Now()
	}

	select {
	case q.batches <- b:
		metrics.UpdateQueueSize(len(q.batches))
		return nil
	case <-ctx.Done():
		metrics.RecordBatchRejected("context_cancelled")
		return ctx.Err()
	default:
		metrics.RecordBatchRejected("queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns a channel that will receive batches as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-q.batches:
				if !ok {
					return
				}
				select {
				case out <- b:
					metrics.UpdateQueueSize(len(q.batches))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued batches.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.batches)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting batches; those already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.batches)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
