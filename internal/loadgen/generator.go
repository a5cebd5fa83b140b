package loadgen

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/duration"
)

// Chance of acceptance is acceptBase plus acceptSkill scaled by a team's skill.
const (
	acceptBase  = 0.15
	acceptSkill = 0.5
	maxGapSecs  = 30
)

// rejections are drawn uniformly for failed attempts. CE is penalty free under
// the default sorter config.
var rejections = []model.Result{
	model.ResultWA, model.ResultWA, model.ResultTLE, model.ResultRTE, model.ResultMLE, model.ResultCE,
}

type contest struct {
	id      string
	doc     *model.Ranklist
	batches [][]model.Event
}

// generateContest builds an empty regenerable ranklist and the solution
// batches to feed it. Submission times strictly increase so arrival order and
// time order agree.
func generateContest(rng *rand.Rand, cfg *Config, id string) contest {
	doc := &model.Ranklist{
		Type:    "general",
		Version: "0.3.0",
		Contest: json.RawMessage(fmt.Sprintf(`{"title":%q,"duration":[5,"h"]}`, id)),
		Series: []model.RankSeries{{
			Title: json.RawMessage(`"Rank"`),
			Rule:  &model.RankSeriesRule{Preset: "Normal"},
		}},
		Sorter: &model.Sorter{Algorithm: model.SorterAlgorithmICPC, Config: json.RawMessage(`{"penalty":[20,"min"]}`)},
	}
	for p := 0; p < cfg.Problems; p++ {
		doc.Problems = append(doc.Problems, model.Problem{Alias: problemAlias(p)})
	}

	skills := make([]float64, cfg.Users)
	users := make([]string, cfg.Users)
	for u := range users {
		users[u] = fmt.Sprintf("team%03d", u+1)
		skills[u] = rng.Float64()
		row := &model.Row{
			User:     model.User{ID: users[u], Name: json.RawMessage(fmt.Sprintf("%q", "Team "+users[u][4:]))},
			Statuses: make([]*model.Status, cfg.Problems),
		}
		for p := range row.Statuses {
			row.Statuses[p] = &model.Status{}
		}
		doc.Rows = append(doc.Rows, row)
	}

	events := make([]model.Event, cfg.Solutions)
	secs := 0
	for i := range events {
		secs += 1 + rng.IntN(maxGapSecs)
		u := rng.IntN(cfg.Users)
		result := rejections[rng.IntN(len(rejections))]
		if rng.Float64() < acceptBase+acceptSkill*skills[u] {
			result = model.ResultAC
		}
		events[i] = model.Event{
			UserID:       users[u],
			ProblemIndex: rng.IntN(cfg.Problems),
			Result:       result,
			Time:         duration.New(float64(secs), duration.Second),
		}
	}

	var batches [][]model.Event
	for start := 0; start < len(events); start += cfg.BatchSize {
		batches = append(batches, events[start:min(start+cfg.BatchSize, len(events))])
	}
	return contest{id: id, doc: doc, batches: batches}
}

// problemAlias names problems A..Z, then AA, AB and so on.
func problemAlias(i int) string {
	alias := ""
	for i >= 0 {
		alias = string(rune('A'+i%26)) + alias
		i = i/26 - 1
	}
	return alias
}
