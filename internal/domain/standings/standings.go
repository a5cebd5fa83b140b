// Package standings turns a scored ranklist into its static form, where every
// row carries its rank values for each series.
package standings

import (
	"context"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/ranking"
	"github.com/okian/ranklist/internal/domain/series"
	"github.com/okian/ranklist/pkg/logger"
)

// Option applies a configuration option to the Converter.
type Option func(*Converter)

// WithLogger sets the sink series warnings are reported to.
func WithLogger(l logger.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// Converter ranks rows and evaluates series.
type Converter struct {
	logger     logger.Logger
	classifier *series.Classifier
}

// NewConverter creates a Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{logger: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	c.classifier = series.NewClassifier(series.WithLogger(c.logger))
	return c
}

// Convert attaches rank values to every row of rl, whose rows must already be in
// scoreboard order. rl is not modified; a nil ranklist yields nil.
func (c *Converter) Convert(ctx context.Context, rl *model.Ranklist) *model.StaticRanklist {
	if rl == nil {
		return nil
	}
	rows := make([]*model.Row, 0, len(rl.Rows))
	for _, row := range rl.Rows {
		if row != nil {
			rows = append(rows, row)
		}
	}
	ranks, official := ranking.AssignRanks(rows)
	values := c.classifier.Classify(ctx, rl.Series, rows, ranks, official)

	out := &model.StaticRanklist{Ranklist: *rl, Rows: make([]model.StaticRow, len(rows))}
	out.Ranklist.Rows = nil
	for i, row := range rows {
		out.Rows[i] = model.StaticRow{Row: row, RankValues: values[i]}
	}
	return out
}
