package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/ranklist/internal/domain/model"
)

// LoadDir stores every *.json ranklist in dir under its file name without the
// extension. It returns the number of ranklists loaded.
func LoadDir(ctx context.Context, store Store, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read snapshot dir: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		path := filepath.Join(dir, e.Name())
		rl, err := ReadFile(path)
		if err != nil {
			return loaded, err
		}
		if err := store.Put(ctx, strings.TrimSuffix(e.Name(), ".json"), rl); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded++
	}
	return loaded, nil
}

// ReadFile decodes a ranklist document from path.
func ReadFile(path string) (*model.Ranklist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ranklist: %w", err)
	}
	var rl model.Ranklist
	if err := json.Unmarshal(b, &rl); err != nil {
		return nil, fmt.Errorf("decode ranklist %s: %w", path, err)
	}
	return &rl, nil
}
