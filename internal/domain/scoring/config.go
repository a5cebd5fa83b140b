package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/duration"
)

// Default ICPC sorter configuration constants.
const (
	defaultPenaltyMinutes = 20
	defaultTimeRounding   = "floor"
)

// SorterConfig is the ICPC sorter configuration carried by a ranklist document.
type SorterConfig struct {
	// Penalty is added once per rejected try before an accepted one.
	Penalty duration.TimeDuration `json:"penalty"`
	// NoPenaltyResults lists verdicts that never count as a try. ResultNone stands
	// for null.
	NoPenaltyResults []model.Result `json:"noPenaltyResults"`
	// TimePrecision is the unit accepted times are truncated to before summing.
	TimePrecision duration.Unit `json:"timePrecision,omitempty"`
	// TimeRounding is one of floor, ceil or round.
	TimeRounding string `json:"timeRounding,omitempty"`
}

// DefaultSorterConfig returns the configuration used for keys a document omits.
func DefaultSorterConfig() SorterConfig {
	return SorterConfig{
		Penalty: duration.New(defaultPenaltyMinutes, duration.Minute),
		NoPenaltyResults: []model.Result{
			model.ResultFB, model.ResultAC, model.ResultPending, model.ResultCE, model.ResultUKE, model.ResultNone,
		},
		TimePrecision: duration.Millisecond,
		TimeRounding:  defaultTimeRounding,
	}
}

// ParseSorterConfig overlays the keys present in raw onto base.
func ParseSorterConfig(base SorterConfig, raw json.RawMessage) (SorterConfig, error) {
	cfg := base
	cfg.NoPenaltyResults = append([]model.Result(nil), base.NoPenaltyResults...)
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return SorterConfig{}, fmt.Errorf("%w: %w", ErrInvalidSorterConfig, err)
		}
	}
	if cfg.TimePrecision == "" {
		cfg.TimePrecision = duration.Millisecond
	}
	if !cfg.TimePrecision.Valid() {
		return SorterConfig{}, fmt.Errorf("%w: time precision %q", ErrInvalidSorterConfig, cfg.TimePrecision)
	}
	return cfg, nil
}

// rules is a SorterConfig prepared for folding.
type rules struct {
	penaltyMs float64
	noPenalty map[model.Result]struct{}
	precision duration.Unit
	round     duration.RoundFunc
}

func newRules(cfg SorterConfig) rules {
	r := rules{
		penaltyMs: duration.ToMillis(cfg.Penalty),
		noPenalty: make(map[model.Result]struct{}, len(cfg.NoPenaltyResults)),
		precision: cfg.TimePrecision,
		round:     duration.RoundingByName(cfg.TimeRounding),
	}
	for _, res := range cfg.NoPenaltyResults {
		r.noPenalty[res] = struct{}{}
	}
	return r
}

func (r rules) penaltyFree(res model.Result) bool {
	_, ok := r.noPenalty[res]
	return ok
}

// solvedMillis is the contribution of one solved cell: the accepted time cut to
// the configured precision plus a penalty per earlier try.
func (r rules) solvedMillis(accepted duration.TimeDuration, tries int) float64 {
	cut := duration.New(duration.FromMillis(duration.ToMillis(accepted), r.precision, r.round), r.precision)
	return duration.ToMillis(cut) + float64(tries-1)*r.penaltyMs
}
