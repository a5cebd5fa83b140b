package model

// RankValue is a row's position within one series. Nil fields encode JSON null.
type RankValue struct {
	Rank         *int `json:"rank"`
	SegmentIndex *int `json:"segmentIndex"`
}

// NullRankValue is the value given to rows a series does not rank.
func NullRankValue() RankValue { return RankValue{} }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StaticRow is a row with its per-series rank values attached.
type StaticRow struct {
	*Row
	RankValues []RankValue `json:"rankValues"`
}

// StaticRanklist is a ranklist whose rows carry precomputed rank values.
type StaticRanklist struct {
	Ranklist
	Rows []StaticRow `json:"rows"`
}
