// Package ranking assigns competition ranks to sorted scoreboard rows.
package ranking

import "github.com/okian/ranklist/internal/domain/model"

// AssignRanks ranks rows that are already in scoreboard order. Equal scores share
// a rank and the next distinct score takes its 1-based position (1, 1, 3).
//
// official holds the same ranking computed over official rows only, aligned to
// the full row index. Unofficial rows get 0, meaning not ranked.
func AssignRanks(rows []*model.Row) (ranks, official []int) {
	ranks = competitionRanks(rows)

	officialRows := make([]*model.Row, 0, len(rows))
	backIndex := make([]int, 0, len(rows))
	for i, row := range rows {
		if row.User.IsOfficial() {
			backIndex = append(backIndex, i)
			officialRows = append(officialRows, row)
		}
	}
	partial := competitionRanks(officialRows)

	official = make([]int, len(rows))
	for j, i := range backIndex {
		official[i] = partial[j]
	}
	return ranks, official
}

func competitionRanks(rows []*model.Row) []int {
	ranks := make([]int, len(rows))
	for i := range rows {
		if i > 0 && ScoreEqual(rows[i].Score, rows[i-1].Score) {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// ScoreEqual reports whether two scores tie: same solved count and the same time
// once converted to milliseconds.
func ScoreEqual(a, b model.Score) bool {
	return a.Value == b.Value && a.Millis() == b.Millis()
}
