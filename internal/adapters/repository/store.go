// Package repository holds ranklist documents in memory.
package repository

import (
	"context"

	"github.com/okian/ranklist/internal/domain/model"
)

// UpdateFunc derives the next version of a ranklist from the current one. It must
// not mutate current.
type UpdateFunc func(current *model.Ranklist) (*model.Ranklist, error)

// Store provides read/write access to ranklists by id.
type Store interface {
	// Put stores rl under id, replacing any previous version.
	Put(ctx context.Context, id string, rl *model.Ranklist) error

	// Get returns the latest version. Returns ErrNotFound if id is unknown.
	// The returned ranklist is shared and must be treated as read only.
	Get(ctx context.Context, id string) (*model.Ranklist, error)

	// Update applies fn to the latest version and stores its result. Updates of
	// the same id are serialized.
	Update(ctx context.Context, id string, fn UpdateFunc) error

	// IDs returns the stored ids in ascending order.
	IDs(ctx context.Context) []string

	// Count returns the number of stored ranklists.
	Count(ctx context.Context) int
}
