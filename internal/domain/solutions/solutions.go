// Package solutions flattens scoreboard rows into a time ordered stream of
// submission events and selects prefixes of that stream.
package solutions

import (
	"sort"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/duration"
)

// Tie-break priorities for events submitted at the same time. Verdicts without
// an entry sort first.
var resultPriority = map[model.Result]int{
	model.ResultFB:      998,
	model.ResultAC:      999,
	model.ResultPending: 1000,
}

// Extract emits one event per logged solution of every row. Cells without a log
// but with a legacy accepted summary are expanded into tries-1 rejections plus the
// accepted verdict, all at the recorded time. Other summary-only cells carry no
// recoverable history and are skipped. The result is sorted with Sort.
func Extract(rows []*model.Row) []model.Event {
	var events []model.Event
	for _, row := range rows {
		if row == nil {
			continue
		}
		userID := row.User.Key()
		for index, status := range row.Statuses {
			if status == nil {
				continue
			}
			if len(status.Solutions) > 0 {
				for _, s := range status.Solutions {
					events = append(events, model.Event{UserID: userID, ProblemIndex: index, Result: s.Result, Time: s.Time})
				}
				continue
			}
			if !status.Result.Accepted() || status.Time == nil || status.Time.Value == 0 {
				continue
			}
			for i := 1; i < status.Tries; i++ {
				events = append(events, model.Event{UserID: userID, ProblemIndex: index, Result: model.ResultRJ, Time: *status.Time})
			}
			events = append(events, model.Event{UserID: userID, ProblemIndex: index, Result: status.Result, Time: *status.Time})
		}
	}
	Sort(events)
	return events
}

// Sort orders events by time, then by verdict priority. Equal keys keep their
// relative order.
func Sort(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if c := duration.Compare(events[i].Time, events[j].Time); c != 0 {
			return c < 0
		}
		return resultPriority[events[i].Result] < resultPriority[events[j].Result]
	})
}

// SelectUntil returns the longest prefix of sorted events submitted at or before
// cutoff. The returned slice aliases events.
func SelectUntil(events []model.Event, cutoff duration.TimeDuration) []model.Event {
	limit := duration.ToMillis(cutoff)
	n := sort.Search(len(events), func(i int) bool {
		return duration.ToMillis(events[i].Time) > limit
	})
	return events[:n]
}
