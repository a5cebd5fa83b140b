package model

import (
	"encoding/json"

	"github.com/okian/ranklist/pkg/duration"
)

// SorterAlgorithmICPC is the only sorter the regenerator understands.
const SorterAlgorithmICPC = "ICPC"

// Ranklist is a standard ranklist document. Presentation-only sections are kept
// as raw JSON and passed through untouched.
type Ranklist struct {
	Type         string          `json:"type"`
	Version      string          `json:"version"`
	Contest      json.RawMessage `json:"contest,omitempty"`
	Problems     []Problem       `json:"problems"`
	Series       []RankSeries    `json:"series"`
	Rows         []*Row          `json:"rows"`
	Sorter       *Sorter         `json:"sorter,omitempty"`
	Markers      json.RawMessage `json:"markers,omitempty"`
	Contributors []string        `json:"contributors,omitempty"`
	Remarks      json.RawMessage `json:"remarks,omitempty"`
}

// Sorter selects the ranking algorithm. Config is decoded by the algorithm.
type Sorter struct {
	Algorithm string          `json:"algorithm"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Problem is a column of the scoreboard.
type Problem struct {
	Title      json.RawMessage    `json:"title,omitempty"`
	Alias      string             `json:"alias,omitempty"`
	Link       string             `json:"link,omitempty"`
	Style      json.RawMessage    `json:"style,omitempty"`
	Statistics *ProblemStatistics `json:"statistics,omitempty"`
}

// ProblemStatistics counts verdicts per problem.
type ProblemStatistics struct {
	Accepted  int `json:"accepted"`
	Submitted int `json:"submitted"`
}

// Score is a row's aggregate: solved count and total penalized time.
type Score struct {
	Value int                    `json:"value"`
	Time  *duration.TimeDuration `json:"time,omitempty"`
}

// Millis returns the score time in milliseconds, zero when absent.
func (s Score) Millis() float64 {
	if s.Time == nil {
		return 0
	}
	return duration.ToMillis(*s.Time)
}

// Solution is an immutable submission fact recorded on a status.
type Solution struct {
	Result Result                `json:"result"`
	Time   duration.TimeDuration `json:"time"`
}

// Status is one scoreboard cell.
type Status struct {
	Result    Result                 `json:"result"`
	Time      *duration.TimeDuration `json:"time,omitempty"`
	Tries     int                    `json:"tries,omitempty"`
	Solutions []Solution             `json:"solutions,omitempty"`
}

// Row is one contestant's line on the scoreboard. Statuses are index aligned with
// Ranklist.Problems.
type Row struct {
	User     User      `json:"user"`
	Score    Score     `json:"score"`
	Statuses []*Status `json:"statuses"`
}

// RankSeries is a named ranking view over the rows.
type RankSeries struct {
	Title    json.RawMessage     `json:"title,omitempty"`
	Segments []RankSeriesSegment `json:"segments,omitempty"`
	Rule     *RankSeriesRule     `json:"rule,omitempty"`
}

// RankSeriesSegment is a band within a series, e.g. gold.
type RankSeriesSegment struct {
	Title json.RawMessage `json:"title,omitempty"`
	Style json.RawMessage `json:"style,omitempty"`
}

// RankSeriesRule picks a preset; Options are decoded by that preset.
type RankSeriesRule struct {
	Preset  string          `json:"preset"`
	Options json.RawMessage `json:"options,omitempty"`
}
