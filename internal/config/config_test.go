package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/ranklist/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.PenaltyMinutes, convey.ShouldEqual, 20)
			convey.So(cfg.SnapshotDir, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with unusable settings", t, func() {
		cases := map[string]func(*config.Config){
			"addr":               func(c *config.Config) { c.Addr = "" },
			"max_batch_size":     func(c *config.Config) { c.MaxBatchSize = 0 },
			"max_document_bytes": func(c *config.Config) { c.MaxDocumentBytes = -1 },
			"penalty_minutes":    func(c *config.Config) { c.PenaltyMinutes = -5 },
		}
		for key, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, key)
		}
	})
}
