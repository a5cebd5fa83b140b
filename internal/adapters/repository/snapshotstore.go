package repository

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/metrics"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// slot holds one ranklist. Readers load the snapshot without locking; writers
// take mu so each update starts from the version the previous one published.
type slot struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[model.Ranklist]
}

// SnapshotStore is an in-memory Store of immutable ranklist snapshots.
type SnapshotStore struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{slots: make(map[string]*slot)}
}

// ValidID reports whether id may name a ranklist.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

func (s *SnapshotStore) Put(_ context.Context, id string, rl *model.Ranklist) error {
	if !ValidID(id) {
		metrics.RecordErrorByComponent("repository", "invalid_id")
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if rl == nil {
		return ErrNilUpdate
	}
	s.mu.Lock()
	sl, ok := s.slots[id]
	if !ok {
		// a new slot is only published once it holds a snapshot
		sl = &slot{}
		sl.snapshot.Store(rl)
		s.slots[id] = sl
	}
	count := len(s.slots)
	s.mu.Unlock()

	if ok {
		sl.mu.Lock()
		sl.snapshot.Store(rl)
		sl.mu.Unlock()
	}
	metrics.UpdateRanklistCount(count)
	return nil
}

func (s *SnapshotStore) Get(_ context.Context, id string) (*model.Ranklist, error) {
	sl := s.slot(id)
	if sl == nil {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rl := sl.snapshot.Load()
	if rl == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rl, nil
}

func (s *SnapshotStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	start := time.Now()
	sl := s.slot(id)
	if sl == nil {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	cur := sl.snapshot.Load()
	if cur == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	if next == nil {
		return ErrNilUpdate
	}
	sl.snapshot.Store(next)
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

func (s *SnapshotStore) IDs(_ context.Context) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (s *SnapshotStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

func (s *SnapshotStore) slot(id string) *slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[id]
}
