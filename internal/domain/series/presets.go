package series

import (
	"github.com/shopspring/decimal"

	"github.com/okian/ranklist/internal/domain/model"
)

// Preset names understood by the classifier.
const (
	PresetNormal          = "Normal"
	PresetUniqByUserField = "UniqByUserField"
	PresetICPC            = "ICPC"
)

// Ratio rounding modes and denominators.
const (
	roundingFloor = "floor"
	roundingCeil  = "ceil"
	roundingRound = "round"

	denominatorAll       = "all"
	denominatorSubmitted = "submitted"
)

type normalOptions struct {
	IncludeOfficialOnly bool `json:"includeOfficialOnly"`
}

type uniqOptions struct {
	Field               string `json:"field"`
	IncludeOfficialOnly bool   `json:"includeOfficialOnly"`
}

type icpcOptions struct {
	Ratio *ratioRule `json:"ratio"`
	Count *countRule `json:"count"`
}

type ratioRule struct {
	Value       []decimal.Decimal `json:"value"`
	Rounding    string            `json:"rounding"`
	Denominator string            `json:"denominator"`
	NoTied      bool              `json:"noTied"`
}

type countRule struct {
	Value  []int `json:"value"`
	NoTied bool  `json:"noTied"`
}

func rankOrNull(r int) *int {
	if r <= 0 {
		return nil
	}
	return model.IntPtr(r)
}

func normal(opts normalOptions, rows []*model.Row, ranks, official []int) []model.RankValue {
	out := make([]model.RankValue, len(rows))
	for i, row := range rows {
		switch {
		case opts.IncludeOfficialOnly && !row.User.IsOfficial():
		case opts.IncludeOfficialOnly:
			out[i].Rank = rankOrNull(at(official, i))
		default:
			out[i].Rank = rankOrNull(at(ranks, i))
		}
	}
	return out
}

// uniqByUserField ranks the first row of every distinct field value. A row whose
// outer rank equals the previously ranked row's shares its assigned rank. Rows
// without the field are not ranked.
func uniqByUserField(opts uniqOptions, rows []*model.Row, ranks, official []int) []model.RankValue {
	out := make([]model.RankValue, len(rows))
	seen := make(map[string]struct{})
	assigned := 0
	lastOuter, lastRank := 0, 0
	for i, row := range rows {
		if opts.IncludeOfficialOnly && !row.User.IsOfficial() {
			continue
		}
		// rows without the field, or with a null or empty one, stay unranked
		// and do not take a rank from the rows after them
		value, ok := row.User.Field(opts.Field)
		if !ok || value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		outer := at(ranks, i)
		if opts.IncludeOfficialOnly {
			outer = at(official, i)
		}
		if outer != lastOuter {
			lastOuter = outer
			lastRank = assigned + 1
		}
		assigned++
		out[i].Rank = model.IntPtr(lastRank)
	}
	return out
}

// icpc places official rows into segments. Each active rule yields cumulative
// endpoints; a row belongs to the first segment whose endpoint under every rule is
// at least its rank.
func icpc(opts icpcOptions, segments int, rows []*model.Row, official []int) []model.RankValue {
	var endpoints [][]int
	noTied := false
	if r := opts.Ratio; r != nil {
		endpoints = append(endpoints, ratioEndpoints(*r, rows))
		noTied = noTied || r.NoTied
	}
	if c := opts.Count; c != nil {
		ends := make([]int, len(c.Value))
		acc := 0
		for i, v := range c.Value {
			acc += v
			ends[i] = acc
		}
		endpoints = append(endpoints, ends)
		noTied = noTied || c.NoTied
	}

	compared := official
	if noTied {
		compared = make([]int, len(official))
		seq := 0
		for i, r := range official {
			if r > 0 {
				seq++
				compared[i] = seq
			}
		}
	}

	out := make([]model.RankValue, len(rows))
	for i, row := range rows {
		if !row.User.IsOfficial() {
			continue
		}
		out[i].Rank = rankOrNull(at(official, i))
		rank := at(compared, i)
		for seg := 0; seg < segments; seg++ {
			if within(endpoints, seg, rank) {
				out[i].SegmentIndex = model.IntPtr(seg)
				break
			}
		}
	}
	return out
}

func within(endpoints [][]int, seg, rank int) bool {
	for _, ends := range endpoints {
		if seg >= len(ends) || rank > ends[seg] {
			return false
		}
	}
	return true
}

func ratioEndpoints(r ratioRule, rows []*model.Row) []int {
	total := int64(0)
	for _, row := range rows {
		if !row.User.IsOfficial() {
			continue
		}
		if r.Denominator == denominatorSubmitted && !submitted(row) {
			continue
		}
		total++
	}
	n := decimal.NewFromInt(total)
	acc := decimal.Zero
	ends := make([]int, len(r.Value))
	for i, v := range r.Value {
		acc = acc.Add(v)
		raw := acc.Mul(n)
		switch r.Rounding {
		case roundingFloor:
			raw = raw.Floor()
		case roundingRound:
			raw = raw.Round(0)
		default:
			raw = raw.Ceil()
		}
		ends[i] = int(raw.IntPart())
	}
	return ends
}

func submitted(row *model.Row) bool {
	for _, st := range row.Statuses {
		if st != nil && st.Result != model.ResultNone {
			return true
		}
	}
	return false
}

func at(s []int, i int) int {
	if i < len(s) {
		return s[i]
	}
	return 0
}
