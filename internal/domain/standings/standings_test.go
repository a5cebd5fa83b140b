package standings_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/standings"
	"github.com/okian/ranklist/pkg/duration"
	. "github.com/smartystreets/goconvey/convey"
)

const document = `{
  "type": "general",
  "version": "0.3.0",
  "problems": [{"alias": "A"}],
  "series": [
    {"title": "#", "rule": {"preset": "Normal", "options": {}}},
    {"title": "Medal", "segments": [{"title": "Gold"}, {"title": "Silver"}],
     "rule": {"preset": "ICPC", "options": {"count": {"value": [1, 1]}}}}
  ],
  "rows": [
    {"user": {"id": 7, "name": "Alice"}, "score": {"value": 1, "time": [20, "min"]},
     "statuses": [{"result": "AC", "time": [20, "min"], "tries": 1}]},
    {"user": {"id": "bob", "name": "Bob", "official": false}, "score": {"value": 0},
     "statuses": [{"result": null}]},
    {"user": {"id": "carol", "name": "Carol"}, "score": {"value": 0},
     "statuses": [{"result": "RJ", "tries": 1}]}
  ],
  "sorter": {"algorithm": "ICPC"}
}`

func TestConvert(t *testing.T) {
	Convey("Given a ranklist document", t, func() {
		var rl model.Ranklist
		So(json.Unmarshal([]byte(document), &rl), ShouldBeNil)

		Convey("When converting to the static form", func() {
			static := standings.NewConverter().Convert(context.Background(), &rl)

			Convey("Then every row carries one rank value per series", func() {
				So(static.Rows, ShouldHaveLength, 3)
				for _, row := range static.Rows {
					So(row.RankValues, ShouldHaveLength, 2)
				}
				So(*static.Rows[0].RankValues[0].Rank, ShouldEqual, 1)
				So(*static.Rows[2].RankValues[0].Rank, ShouldEqual, 2)
				So(*static.Rows[0].RankValues[1].SegmentIndex, ShouldEqual, 0)
				So(*static.Rows[2].RankValues[1].SegmentIndex, ShouldEqual, 1)
				So(static.Rows[1].RankValues[1], ShouldResemble, model.NullRankValue())
			})

			Convey("Then the rows serialize with their rank values inline", func() {
				b, err := json.Marshal(static)
				So(err, ShouldBeNil)
				var back struct {
					Rows []struct {
						User       map[string]any   `json:"user"`
						RankValues []map[string]any `json:"rankValues"`
					} `json:"rows"`
				}
				So(json.Unmarshal(b, &back), ShouldBeNil)
				So(back.Rows[0].User["id"], ShouldEqual, "7")
				So(back.Rows[1].RankValues[1]["rank"], ShouldBeNil)
				So(back.Rows[1].RankValues[0]["rank"], ShouldEqual, float64(2))
			})

			Convey("Then the source document is untouched", func() {
				So(rl.Rows, ShouldHaveLength, 3)
				So(rl.Rows[0].Score.Time, ShouldResemble, &duration.TimeDuration{Value: 20, Unit: duration.Minute})
			})
		})
	})

	Convey("Given no ranklist", t, func() {
		So(standings.NewConverter().Convert(context.Background(), nil), ShouldBeNil)
	})
}
