package loadgen

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ranklist/internal/adapters/http/api"
	service "github.com/okian/ranklist/internal/app"
	"github.com/okian/ranklist/internal/domain/scoring"
)

func testConfig(url string) Config {
	return Config{
		BaseURL:   url,
		Contests:  3,
		Users:     8,
		Problems:  4,
		Solutions: 120,
		BatchSize: 7,
		Timeout:   5 * time.Second,
		Wait:      10 * time.Second,
		Seed:      42,
	}
}

func TestGenerateContest(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		cfg := testConfig("")
		c := generateContest(rand.New(rand.NewPCG(1, 2)), &cfg, "c1")

		Convey("Then the document is regenerable and empty", func() {
			So(scoring.CanRegenerate(c.doc), ShouldBeTrue)
			So(c.doc.Rows, ShouldHaveLength, 8)
			So(c.doc.Problems, ShouldHaveLength, 4)
			So(c.doc.Problems[3].Alias, ShouldEqual, "D")
			for _, row := range c.doc.Rows {
				So(row.Score.Value, ShouldEqual, 0)
				So(row.Statuses, ShouldHaveLength, 4)
			}
		})

		Convey("Then batches cover every solution in time order", func() {
			So(c.batches, ShouldHaveLength, 18)
			So(c.batches[17], ShouldHaveLength, 1)
			prev := -1.0
			total := 0
			for _, b := range c.batches {
				for _, e := range b {
					So(e.Time.Value, ShouldBeGreaterThan, prev)
					prev = e.Time.Value
					So(e.ProblemIndex, ShouldBeBetweenOrEqual, 0, 3)
					total++
				}
			}
			So(total, ShouldEqual, 120)
		})
	})
}

func TestProblemAlias(t *testing.T) {
	Convey("Problem aliases continue past Z", t, func() {
		So(problemAlias(0), ShouldEqual, "A")
		So(problemAlias(25), ShouldEqual, "Z")
		So(problemAlias(26), ShouldEqual, "AA")
		So(problemAlias(27), ShouldEqual, "AB")
	})
}

func TestRunAgainstService(t *testing.T) {
	Convey("Given a running ranklist service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When a load run drives several contests", func() {
			cfg := testConfig(srv.URL)
			cfg.OutputDir = t.TempDir()
			stats, err := NewRunner(cfg).Run(ctx)

			Convey("Then incremental results match full regeneration", func() {
				So(err, ShouldBeNil)
				So(stats.Mismatches, ShouldEqual, 0)
				So(stats.SolutionsSubmitted, ShouldEqual, 360)
				So(stats.BatchesAccepted, ShouldEqual, 54)
				So(stats.BatchesFailed, ShouldEqual, 0)
			})

			Convey("Then each final document is saved", func() {
				files, err := filepath.Glob(filepath.Join(cfg.OutputDir, "*.json"))
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 3)
				info, err := os.Stat(files[0])
				So(err, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the service is unreachable", func() {
			cfg := testConfig("http://127.0.0.1:1")
			cfg.Timeout = time.Second
			_, err := NewRunner(cfg).Run(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}
