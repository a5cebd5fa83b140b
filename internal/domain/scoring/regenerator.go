// Package scoring folds solution events into ICPC rows: a full rebuild from a
// roster and an incremental fold over already scored rows.
package scoring

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/duration"
	"github.com/okian/ranklist/pkg/logger"
	"github.com/okian/ranklist/pkg/metrics"
)

// Regenerator rebuilds or extends ICPC ranklist rows from solution events.
type Regenerator struct {
	logger   logger.Logger
	defaults SorterConfig
}

// NewRegenerator creates a Regenerator with the default sorter configuration.
func NewRegenerator(opts ...Option) *Regenerator {
	r := &Regenerator{
		logger:   logger.Nop(),
		defaults: DefaultSorterConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SorterConfig resolves the effective sorter configuration of rl.
func (r *Regenerator) SorterConfig(rl *model.Ranklist) (SorterConfig, error) {
	var raw []byte
	if rl != nil && rl.Sorter != nil {
		raw = rl.Sorter.Config
	}
	return ParseSorterConfig(r.defaults, raw)
}

// Regenerate rebuilds every row of original from its roster and events, which
// must already be in chronological order. Problem statistics are recomputed.
// The input ranklist is left untouched.
func (r *Regenerator) Regenerate(ctx context.Context, original *model.Ranklist, events []model.Event) (*model.Ranklist, error) {
	start := time.Now()
	if err := CheckRegenerable(original); err != nil {
		return nil, err
	}
	cfg, err := r.SorterConfig(original)
	if err != nil {
		return nil, err
	}
	rs := newRules(cfg)
	problemCount := len(original.Problems)

	rows := make([]*model.Row, 0, len(original.Rows))
	position := make(map[string]int, len(original.Rows))
	for _, src := range original.Rows {
		if src == nil {
			continue
		}
		row := &model.Row{User: src.User, Statuses: make([]*model.Status, problemCount)}
		for i := range row.Statuses {
			row.Statuses[i] = &model.Status{}
		}
		key := src.User.Key()
		if at, ok := position[key]; ok {
			rows[at] = row
			continue
		}
		position[key] = len(rows)
		rows = append(rows, row)
	}

	applied := 0
	for _, e := range events {
		at, ok := position[e.UserID]
		if !ok {
			r.fault(ctx, metrics.ModeFull, "invalid user id found while regenerating ranklist", e)
			break
		}
		if e.ProblemIndex < 0 || e.ProblemIndex >= problemCount {
			r.fault(ctx, metrics.ModeFull, "invalid problem index found while regenerating ranklist", e)
			break
		}
		st := rows[at].Statuses[e.ProblemIndex]
		st.Solutions = append(st.Solutions, model.Solution{Result: e.Result, Time: e.Time})
		applied++
	}

	accepted := make([]int, problemCount)
	submitted := make([]int, problemCount)
	for _, row := range rows {
		solved := 0
		total := 0.0
		for i, st := range row.Statuses {
			foldStatus(st, rs, &accepted[i], &submitted[i])
			if st.Result.Accepted() && st.Time != nil {
				solved++
				total += rs.solvedMillis(*st.Time, st.Tries)
			}
		}
		t := duration.Millis(total)
		row.Score = model.Score{Value: solved, Time: &t}
	}
	SortRows(rows)

	out := *original
	out.Rows = rows
	out.Problems = make([]model.Problem, problemCount)
	for i, p := range original.Problems {
		p.Statistics = &model.ProblemStatistics{Accepted: accepted[i], Submitted: submitted[i]}
		out.Problems[i] = p
	}

	metrics.RecordRegeneration(metrics.ModeFull)
	metrics.RecordEventsApplied(metrics.ModeFull, applied)
	metrics.RecordRegenerationDuration(metrics.ModeFull, float64(time.Since(start).Microseconds())/1000)
	return &out, nil
}

// foldStatus derives a cell's verdict and tries from its solution log. The log
// stops at the first accepted solution; anything after it is ignored.
func foldStatus(st *model.Status, rs rules, accepted, submitted *int) {
	for _, s := range st.Solutions {
		switch {
		case s.Result == model.ResultNone:
			continue
		case s.Result == model.ResultPending:
			st.Result = model.ResultPending
			st.Tries++
			*submitted++
			continue
		case s.Result.Accepted():
			st.Result = s.Result
			t := s.Time
			st.Time = &t
			st.Tries++
			*accepted++
			*submitted++
			return
		case rs.penaltyFree(s.Result):
			continue
		}
		st.Result = model.ResultRJ
		st.Tries++
		*submitted++
	}
}

type cellKey struct {
	user    string
	problem int
}

// ApplyIncremental folds events into copies of the rows of original and returns
// them re-sorted. Rows and statuses no event touches are shared with the input;
// touched ones are copied first, so the input is never mutated. Problem
// statistics are not maintained.
func (r *Regenerator) ApplyIncremental(ctx context.Context, original *model.Ranklist, events []model.Event) ([]*model.Row, error) {
	start := time.Now()
	if err := CheckRegenerable(original); err != nil {
		return nil, err
	}
	cfg, err := r.SorterConfig(original)
	if err != nil {
		return nil, err
	}
	rs := newRules(cfg)

	rows := make([]*model.Row, 0, len(original.Rows))
	for _, row := range original.Rows {
		if row != nil {
			rows = append(rows, row)
		}
	}
	position := make(map[string]int, len(rows))
	for i, row := range rows {
		position[row.User.Key()] = i
	}
	ownedRows := make(map[string]struct{})
	ownedCells := make(map[cellKey]struct{})

	applied := 0
	for _, e := range events {
		at, ok := position[e.UserID]
		if !ok {
			r.fault(ctx, metrics.ModeIncremental, "invalid user id found while applying solutions", e)
			break
		}
		row := rows[at]
		if e.ProblemIndex < 0 || e.ProblemIndex >= len(row.Statuses) {
			r.fault(ctx, metrics.ModeIncremental, "invalid problem index found while applying solutions", e)
			break
		}
		if _, ok := ownedRows[e.UserID]; !ok {
			row = cloneRow(row)
			rows[at] = row
			ownedRows[e.UserID] = struct{}{}
		}
		key := cellKey{user: e.UserID, problem: e.ProblemIndex}
		if _, ok := ownedCells[key]; !ok {
			row.Statuses[e.ProblemIndex] = cloneStatus(row.Statuses[e.ProblemIndex])
			ownedCells[key] = struct{}{}
		}

		st := row.Statuses[e.ProblemIndex]
		st.Solutions = append(st.Solutions, model.Solution{Result: e.Result, Time: e.Time})
		applied++

		switch {
		case st.Result.Accepted(), e.Result == model.ResultNone:
		case e.Result == model.ResultPending:
			st.Result = model.ResultPending
			st.Tries++
		case e.Result.Accepted():
			st.Result = e.Result
			t := e.Time
			st.Time = &t
			st.Tries++
			total := duration.Millis(row.Score.Millis() + rs.solvedMillis(t, st.Tries))
			row.Score.Value++
			row.Score.Time = &total
		case rs.penaltyFree(e.Result):
		default:
			st.Result = model.ResultRJ
			st.Tries++
		}
	}
	SortRows(rows)

	metrics.RecordRegeneration(metrics.ModeIncremental)
	metrics.RecordEventsApplied(metrics.ModeIncremental, applied)
	metrics.RecordRegenerationDuration(metrics.ModeIncremental, float64(time.Since(start).Microseconds())/1000)
	return rows, nil
}

func cloneRow(src *model.Row) *model.Row {
	row := *src
	row.Statuses = slices.Clone(src.Statuses)
	if src.Score.Time != nil {
		t := *src.Score.Time
		row.Score.Time = &t
	}
	return &row
}

func cloneStatus(src *model.Status) *model.Status {
	if src == nil {
		return &model.Status{}
	}
	st := *src
	st.Solutions = slices.Clone(src.Solutions)
	if src.Time != nil {
		t := *src.Time
		st.Time = &t
	}
	return &st
}

func (r *Regenerator) fault(ctx context.Context, mode, msg string, e model.Event) {
	metrics.RecordIntegrityFault(mode)
	r.logger.Error(ctx, msg,
		logger.String("user_id", e.UserID),
		logger.Int("problem_index", e.ProblemIndex),
		logger.String("result", string(e.Result)),
	)
}

// SortRows orders rows by solved count descending, then total time ascending.
// Ties keep their current relative order.
func SortRows(rows []*model.Row) {
	sort.SliceStable(rows, func(i, j int) bool { return Less(rows[i], rows[j]) })
}

// Less reports whether a ranks strictly ahead of b.
func Less(a, b *model.Row) bool {
	if a.Score.Value != b.Score.Value {
		return a.Score.Value > b.Score.Value
	}
	return a.Score.Millis() < b.Score.Millis()
}
