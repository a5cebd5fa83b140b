package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/ranklist/internal/adapters/mq/queue"
	worker "github.com/okian/ranklist/internal/adapters/mq/worker"
	"github.com/okian/ranklist/internal/adapters/repository"
	model "github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/scoring"
	"github.com/okian/ranklist/pkg/duration"
	"github.com/smartystreets/goconvey/convey"
)

type failingApplier struct{ err error }

func (f failingApplier) ApplyIncremental(context.Context, *model.Ranklist, []model.Event) ([]*model.Row, error) {
	return nil, f.err
}

type sliceSource chan queue.Batch

func (s sliceSource) Dequeue(context.Context) <-chan queue.Batch { return s }
func (s sliceSource) Close() error                               { close(s); return nil }

func seed(ctx context.Context, store repository.Store, id string, users ...string) {
	rl := &model.Ranklist{
		Version:  "0.3.0",
		Problems: make([]model.Problem, 1),
		Sorter:   &model.Sorter{Algorithm: model.SorterAlgorithmICPC},
	}
	for _, u := range users {
		rl.Rows = append(rl.Rows, &model.Row{User: model.User{ID: u}})
	}
	full, err := scoring.NewRegenerator().Regenerate(ctx, rl, nil)
	convey.So(err, convey.ShouldBeNil)
	convey.So(store.Put(ctx, id, full), convey.ShouldBeNil)
}

func ev(user string, res model.Result, min float64) model.Event {
	return model.Event{UserID: user, ProblemIndex: 0, Result: res, Time: duration.New(min, duration.Minute)}
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool applying batches to a snapshot store", t, func() {
		ctx := context.Background()
		store := repository.NewSnapshotStore()
		seed(ctx, store, "alpha", "u1", "u2")
		seed(ctx, store, "beta", "u1")

		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		var mu sync.Mutex
		var failures []string
		pool := worker.NewPool(4, q, scoring.NewRegenerator(), store,
			worker.WithOnProcessed(func(b queue.Batch, err error) {
				if err != nil {
					mu.Lock()
					failures = append(failures, b.ID)
					mu.Unlock()
				}
			}),
		)
		pool.Start(ctx)

		convey.Convey("When batches for the same ranklist arrive in order", func() {
			for i := range 100 {
				res := model.ResultWA
				if i == 99 {
					res = model.ResultAC
				}
				convey.So(q.Enqueue(ctx, queue.Batch{
					ID:         fmt.Sprintf("alpha-%d", i),
					RanklistID: "alpha",
					Events:     []model.Event{ev("u1", res, float64(i))},
				}), convey.ShouldBeNil)
				convey.So(q.Enqueue(ctx, queue.Batch{
					ID:         fmt.Sprintf("beta-%d", i),
					RanklistID: "beta",
					Events:     []model.Event{ev("u1", model.ResultPending, float64(i))},
				}), convey.ShouldBeNil)
			}
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then every batch is applied once, in enqueue order", func() {
				total, failed := pool.Processed()
				convey.So(total, convey.ShouldEqual, 200)
				convey.So(failed, convey.ShouldEqual, 0)

				alpha, err := store.Get(ctx, "alpha")
				convey.So(err, convey.ShouldBeNil)
				u1 := alpha.Rows[0]
				convey.So(u1.User.ID, convey.ShouldEqual, "u1")
				convey.So(u1.Statuses[0].Result, convey.ShouldEqual, model.ResultAC)
				convey.So(u1.Statuses[0].Tries, convey.ShouldEqual, 100)
				convey.So(u1.Statuses[0].Solutions, convey.ShouldHaveLength, 100)
				convey.So(u1.Score.Millis(), convey.ShouldEqual, (99+99*20)*60_000)

				beta, err := store.Get(ctx, "beta")
				convey.So(err, convey.ShouldBeNil)
				convey.So(beta.Rows[0].Statuses[0].Tries, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When a batch targets an unknown ranklist", func() {
			convey.So(q.Enqueue(ctx, queue.Batch{ID: "ghost-1", RanklistID: "ghost"}), convey.ShouldBeNil)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then it is reported as failed", func() {
				_, failed := pool.Processed()
				convey.So(failed, convey.ShouldEqual, 1)
				mu.Lock()
				defer mu.Unlock()
				convey.So(failures, convey.ShouldResemble, []string{"ghost-1"})
			})
		})
	})
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker whose applier fails", t, func() {
		ctx := context.Background()
		store := repository.NewSnapshotStore()
		seed(ctx, store, "alpha", "u1")
		before, _ := store.Get(ctx, "alpha")

		src := make(sliceSource, 1)
		w := worker.NewInMemoryWorker(src, failingApplier{err: errors.New("boom")}, store, worker.WithName("w0"))
		go w.Run(ctx)

		convey.Convey("When it processes a batch", func() {
			src <- queue.Batch{ID: "b1", RanklistID: "alpha", Events: []model.Event{ev("u1", model.ResultAC, 1)}}
			time.Sleep(50 * time.Millisecond)
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)

			convey.Convey("Then the stored snapshot is unchanged", func() {
				after, _ := store.Get(ctx, "alpha")
				convey.So(after, convey.ShouldEqual, before)
			})
		})
	})

	convey.Convey("Given a worker whose source is closed", t, func() {
		src := make(sliceSource)
		w := worker.NewInMemoryWorker(src, scoring.NewRegenerator(), repository.NewSnapshotStore())
		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()
		_ = src.Close()

		convey.Convey("Then Run returns", func() {
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Error("worker did not stop on closed source")
			}
		})
	})
}
