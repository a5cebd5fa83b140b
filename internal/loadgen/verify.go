package loadgen

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-cmp/cmp"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/scoring"
	"github.com/okian/ranklist/internal/domain/solutions"
	"github.com/okian/ranklist/pkg/logger"
)

type standing struct {
	Value  int
	Millis float64
	Tries  []int
}

// verify fetches contest c and compares every served row with a full
// regeneration from the solutions the served rows record. It returns the
// number of rows that differ.
func (r *Runner) verify(ctx context.Context, c contest) (int, error) {
	var served model.Ranklist
	if _, err := r.client.do(ctx, http.MethodGet, "/ranklists/"+c.id, nil, &served); err != nil {
		return 0, fmt.Errorf("fetch contest %s: %w", c.id, err)
	}

	recorded := solutions.Extract(served.Rows)
	want := 0
	for _, b := range c.batches {
		want += len(b)
	}
	if len(recorded) != want {
		r.logger.Warn(ctx, "solutions lost",
			logger.String("ranklist_id", c.id),
			logger.Int("submitted", want),
			logger.Int("recorded", len(recorded)),
		)
	}

	full, err := scoring.NewRegenerator().Regenerate(ctx, &served, recorded)
	if err != nil {
		return 0, fmt.Errorf("regenerate contest %s: %w", c.id, err)
	}

	mismatches := 0
	expected, got := standings(full.Rows), standings(served.Rows)
	if diff := cmp.Diff(expected, got); diff != "" {
		for key, s := range expected {
			if !cmp.Equal(s, got[key]) {
				mismatches++
			}
		}
		r.logger.Warn(ctx, "served ranklist differs from full regeneration",
			logger.String("ranklist_id", c.id),
			logger.String("diff", diff),
		)
	}
	for i := 1; i < len(served.Rows); i++ {
		if scoring.Less(served.Rows[i], served.Rows[i-1]) {
			r.logger.Warn(ctx, "served rows out of order", logger.String("ranklist_id", c.id), logger.Int("row", i))
			mismatches++
		}
	}

	if err := r.save(ctx, c.id, &served); err != nil {
		r.logger.Warn(ctx, "failed to save ranklist", logger.String("ranklist_id", c.id), logger.Error(err))
	}
	return mismatches, nil
}

func standings(rows []*model.Row) map[string]standing {
	out := make(map[string]standing, len(rows))
	for _, row := range rows {
		s := standing{Value: row.Score.Value, Millis: row.Score.Millis()}
		for _, st := range row.Statuses {
			tries := 0
			if st != nil {
				tries = st.Tries
			}
			s.Tries = append(s.Tries, tries)
		}
		out[row.User.Key()] = s
	}
	return out
}
