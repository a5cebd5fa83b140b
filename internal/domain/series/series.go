// Package series derives per-series rank values from the base ranking: plain
// ranks, first-per-field ranks and ICPC award segments.
package series

import (
	"context"
	"encoding/json"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/logger"
	"github.com/okian/ranklist/pkg/metrics"
)

// Classifier evaluates series rules over ranked rows.
type Classifier struct {
	logger logger.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{logger: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns, for every row, one RankValue per series definition. ranks and
// official come from ranking.AssignRanks over the same rows. A series without a
// rule, with an unknown preset or with undecodable options ranks nobody.
func (c *Classifier) Classify(ctx context.Context, defs []model.RankSeries, rows []*model.Row, ranks, official []int) [][]model.RankValue {
	out := make([][]model.RankValue, len(rows))
	for i := range out {
		out[i] = make([]model.RankValue, len(defs))
	}
	for s, def := range defs {
		values := c.evaluate(ctx, def, rows, ranks, official)
		if values == nil {
			continue
		}
		for i := range rows {
			out[i][s] = values[i]
		}
	}
	return out
}

func (c *Classifier) evaluate(ctx context.Context, def model.RankSeries, rows []*model.Row, ranks, official []int) []model.RankValue {
	if def.Rule == nil {
		return nil
	}
	preset := def.Rule.Preset
	switch preset {
	case PresetNormal:
		var opts normalOptions
		if c.decode(ctx, preset, def.Rule.Options, &opts) {
			return normal(opts, rows, ranks, official)
		}
	case PresetUniqByUserField:
		var opts uniqOptions
		if c.decode(ctx, preset, def.Rule.Options, &opts) {
			return uniqByUserField(opts, rows, ranks, official)
		}
	case PresetICPC:
		var opts icpcOptions
		if c.decode(ctx, preset, def.Rule.Options, &opts) {
			return icpc(opts, len(def.Segments), rows, official)
		}
	default:
		metrics.RecordSeriesFallback(preset)
		c.logger.Warn(ctx, "unknown series rule preset", logger.String("preset", preset))
	}
	return nil
}

func (c *Classifier) decode(ctx context.Context, preset string, raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	if err := json.Unmarshal(raw, v); err != nil {
		metrics.RecordSeriesFallback(preset)
		c.logger.Warn(ctx, "invalid series rule options", logger.String("preset", preset), logger.Error(err))
		return false
	}
	return true
}
