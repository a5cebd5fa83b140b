package solutions_test

import (
	"testing"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/solutions"
	"github.com/okian/ranklist/pkg/duration"
	. "github.com/smartystreets/goconvey/convey"
)

func minutes(v float64) duration.TimeDuration { return duration.New(v, duration.Minute) }

func TestExtract(t *testing.T) {
	Convey("Given rows with solution logs", t, func() {
		rows := []*model.Row{
			{
				User: model.User{ID: "u1"},
				Statuses: []*model.Status{
					{Solutions: []model.Solution{
						{Result: model.ResultWA, Time: minutes(10)},
						{Result: model.ResultAC, Time: minutes(30)},
					}},
					{},
				},
			},
			{
				User: model.User{ID: "u2"},
				Statuses: []*model.Status{
					{Solutions: []model.Solution{{Result: model.ResultAC, Time: minutes(10)}}},
					{Solutions: []model.Solution{{Result: model.ResultPending, Time: minutes(10)}}},
				},
			},
		}

		Convey("When extracting events", func() {
			events := solutions.Extract(rows)

			Convey("Then every logged solution becomes one event", func() {
				So(events, ShouldHaveLength, 4)
			})

			Convey("Then events at the same time order rejections, AC, then pending", func() {
				So(events[0].UserID, ShouldEqual, "u1")
				So(events[0].Result, ShouldEqual, model.ResultWA)
				So(events[1].Result, ShouldEqual, model.ResultAC)
				So(events[1].UserID, ShouldEqual, "u2")
				So(events[2].Result, ShouldEqual, model.ResultPending)
				So(events[3].Result, ShouldEqual, model.ResultAC)
				So(events[3].Time, ShouldResemble, minutes(30))
			})
		})
	})

	Convey("Given a legacy summary without a log", t, func() {
		tm := minutes(42)
		rows := []*model.Row{{
			User: model.User{ID: "legacy"},
			Statuses: []*model.Status{
				{Result: model.ResultFB, Time: &tm, Tries: 3},
				{Result: model.ResultRJ, Tries: 2},
				{Result: model.ResultAC, Time: &duration.TimeDuration{Value: 0, Unit: duration.Minute}, Tries: 1},
			},
		}}

		Convey("When extracting events", func() {
			events := solutions.Extract(rows)

			Convey("Then the accepted cell expands into rejections plus the verdict", func() {
				So(events, ShouldHaveLength, 3)
				So(events[0].Result, ShouldEqual, model.ResultRJ)
				So(events[1].Result, ShouldEqual, model.ResultRJ)
				So(events[2].Result, ShouldEqual, model.ResultFB)
				for _, e := range events {
					So(e.ProblemIndex, ShouldEqual, 0)
					So(e.Time, ShouldResemble, tm)
				}
			})
		})
	})

	Convey("Given rows identified by name only", t, func() {
		rows := []*model.Row{{
			User:     model.User{Name: []byte(`"Alice"`)},
			Statuses: []*model.Status{{Solutions: []model.Solution{{Result: model.ResultAC, Time: minutes(1)}}}},
		}}

		Convey("Then events address the user by name", func() {
			So(solutions.Extract(rows)[0].UserID, ShouldEqual, "Alice")
		})
	})
}

func TestSort(t *testing.T) {
	Convey("Given events in mixed units", t, func() {
		events := []model.Event{
			{UserID: "a", Result: model.ResultAC, Time: duration.New(2, duration.Minute)},
			{UserID: "b", Result: model.ResultWA, Time: duration.New(90, duration.Second)},
			{UserID: "c", Result: model.ResultCE, Time: duration.New(90_000, duration.Millisecond)},
		}

		Convey("When sorting", func() {
			solutions.Sort(events)

			Convey("Then time is compared in milliseconds and ties stay stable", func() {
				So(events[0].UserID, ShouldEqual, "b")
				So(events[1].UserID, ShouldEqual, "c")
				So(events[2].UserID, ShouldEqual, "a")
			})
		})
	})
}

func TestSelectUntil(t *testing.T) {
	Convey("Given events at 1, 5 and 12 minutes", t, func() {
		events := []model.Event{
			{UserID: "a", Time: minutes(1)},
			{UserID: "b", Time: minutes(5)},
			{UserID: "c", Time: minutes(12)},
		}

		Convey("When the cutoff is 5 minutes", func() {
			got := solutions.SelectUntil(events, minutes(5))

			Convey("Then the boundary event is included", func() {
				So(got, ShouldHaveLength, 2)
				So(got[1].UserID, ShouldEqual, "b")
			})
		})

		Convey("When the cutoff is before every event", func() {
			So(solutions.SelectUntil(events, duration.New(59, duration.Second)), ShouldBeEmpty)
		})

		Convey("When the cutoff is after every event", func() {
			So(solutions.SelectUntil(events, duration.New(1, duration.Hour)), ShouldHaveLength, 3)
		})
	})
}
