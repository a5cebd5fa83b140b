package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/ranklist/internal/adapters/http/api"
	"github.com/okian/ranklist/internal/adapters/mq/queue"
	service "github.com/okian/ranklist/internal/app"
	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/duration"
	. "github.com/smartystreets/goconvey/convey"
)

const document = `{
  "type": "general",
  "version": "0.3.0",
  "problems": [{"alias": "A"}, {"alias": "B"}],
  "series": [{"title": "R#", "rule": {"preset": "Normal", "options": {}}}],
  "rows": [
    {"user": {"id": "alice", "name": "Alice"}, "score": {"value": 0},
     "statuses": [{"result": "AC", "time": [30, "min"], "tries": 2,
                   "solutions": [{"result": "WA", "time": [5, "min"]}, {"result": "AC", "time": [30, "min"]}]},
                  {"result": null}]},
    {"user": {"id": "bob", "name": "Bob"}, "score": {"value": 0},
     "statuses": [{"result": "AC", "time": [10, "min"], "tries": 1,
                   "solutions": [{"result": "AC", "time": [10, "min"]}]},
                  {"result": null}]}
  ],
  "sorter": {"algorithm": "ICPC", "config": {"penalty": [20, "min"]}}
}`

func newServer(deps api.Dependencies, stats api.StatsProvider, opts ...api.Option) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, stats, opts...).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func do(method, url, body string) (*http.Response, map[string]any) {
	req, _ := http.NewRequest(method, url, strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestRanklistEndpoints(t *testing.T) {
	Convey("Given an API backed by a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		srv := newServer(svc, svc)
		defer srv.Close()

		Convey("When a ranklist is stored with regeneration", func() {
			resp, body := do(http.MethodPut, srv.URL+"/ranklists/wf?regenerate=true", document)

			Convey("Then it is accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["regenerated"], ShouldEqual, true)
				So(body["rows"], ShouldEqual, float64(2))
			})

			Convey("Then the static view carries ranks", func() {
				resp, body := do(http.MethodGet, srv.URL+"/ranklists/wf", "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				rows := body["rows"].([]any)
				first := rows[0].(map[string]any)
				So(first["user"].(map[string]any)["id"], ShouldEqual, "bob")
				So(first["rankValues"].([]any)[0].(map[string]any)["rank"], ShouldEqual, float64(1))
			})

			Convey("Then the view until 20 minutes is regenerated", func() {
				resp, body := do(http.MethodGet, srv.URL+"/ranklists/wf?until=20min", "")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				alice := body["rows"].([]any)[1].(map[string]any)
				So(alice["score"].(map[string]any)["value"], ShouldEqual, float64(0))
			})

			Convey("Then solutions can be submitted once", func() {
				payload := `{"id":"b-1","solutions":[["alice",1,"AC",[40,"min"]]]}`
				resp, body := do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", payload)
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(body["batch_id"], ShouldEqual, "b-1")

				resp, body = do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", payload)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["duplicate"], ShouldEqual, true)

				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					if n, _ := svc.GetStats()["batchesProcessed"].(int64); n >= 1 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				_, body = do(http.MethodGet, srv.URL+"/ranklists/wf", "")
				first := body["rows"].([]any)[0].(map[string]any)
				So(first["user"].(map[string]any)["id"], ShouldEqual, "alice")
				So(first["score"].(map[string]any)["value"], ShouldEqual, float64(2))
			})

			Convey("Then solutions without a batch id get one", func() {
				resp, body := do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", `{"solutions":[["bob",1,"WA",[1,"h"]]]}`)
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(body["batch_id"], ShouldNotBeEmpty)
			})
		})

		Convey("When requests are malformed", func() {
			_, _ = do(http.MethodPut, srv.URL+"/ranklists/wf", document)

			resp, body := do(http.MethodPut, srv.URL+"/ranklists/wf", `{"rows": [`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")

			resp, _ = do(http.MethodPut, srv.URL+"/ranklists/wf?regenerate=maybe", document)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

			resp, _ = do(http.MethodPut, srv.URL+"/ranklists/.bad", document)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

			resp, _ = do(http.MethodGet, srv.URL+"/ranklists/wf?until=soon", "")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

			resp, _ = do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", `{"solutions":[]}`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

			resp, _ = do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", `{"solutions":[["",0,"AC",[1,"min"]]]}`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

			resp, _ = do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", `{"solutions":[["u",0,"AC",[1,"week"]]]}`)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the ranklist is unknown", func() {
			resp, body := do(http.MethodGet, srv.URL+"/ranklists/ghost", "")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")

			resp, _ = do(http.MethodPost, srv.URL+"/ranklists/ghost/solutions", `{"solutions":[["u",0,"AC",[1,"min"]]]}`)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the ranklist cannot be regenerated", func() {
			old := strings.Replace(document, `"version": "0.3.0"`, `"version": "0.2.0"`, 1)

			resp, body := do(http.MethodPut, srv.URL+"/ranklists/old?regenerate=true", old)
			So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
			So(body["code"], ShouldEqual, "not_regenerable")

			resp, _ = do(http.MethodPut, srv.URL+"/ranklists/old", old)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp, _ = do(http.MethodGet, srv.URL+"/ranklists/old", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp, _ = do(http.MethodGet, srv.URL+"/ranklists/old?until=1h", "")
			So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
			resp, _ = do(http.MethodPost, srv.URL+"/ranklists/old/solutions", `{"solutions":[["alice",0,"AC",[1,"min"]]]}`)
			So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("When the method is not routed", func() {
			resp, _ := do(http.MethodDelete, srv.URL+"/ranklists/wf", "")
			So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When reading stats and metrics", func() {
			resp, body := do(http.MethodGet, srv.URL+"/stats", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)

			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

type stubDeps struct {
	submitErr error
}

func (stubDeps) PutRanklist(_ context.Context, _ string, rl *model.Ranklist, _ bool) (*model.Ranklist, error) {
	return rl, nil
}

func (stubDeps) Static(context.Context, string) (*model.StaticRanklist, error) {
	return &model.StaticRanklist{}, nil
}

func (stubDeps) StaticUntil(context.Context, string, duration.TimeDuration) (*model.StaticRanklist, error) {
	return &model.StaticRanklist{}, nil
}

func (d stubDeps) SubmitSolutions(context.Context, string, string, []model.Event) (string, bool, error) {
	return "", false, d.submitErr
}

type stubStats struct{}

func (stubStats) GetStats() map[string]any { return map[string]any{"started": false} }

func TestSolutionLimits(t *testing.T) {
	Convey("Given an API with small limits", t, func() {
		srv := newServer(stubDeps{submitErr: queue.ErrQueueFull}, stubStats{},
			api.WithMaxBatchSize(2),
			api.WithMaxDocumentBytes(256),
		)
		defer srv.Close()

		Convey("When a batch has too many solutions", func() {
			resp, body := do(http.MethodPost, srv.URL+"/ranklists/wf/solutions",
				`{"solutions":[["a",0,"AC",[1,"min"]],["b",0,"AC",[1,"min"]],["c",0,"AC",[1,"min"]]]}`)

			Convey("Then it is refused as too large", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(body["code"], ShouldEqual, "payload_too_large")
			})
		})

		Convey("When the body exceeds the byte limit", func() {
			resp, _ := do(http.MethodPut, srv.URL+"/ranklists/wf", fmt.Sprintf(`{"type":%q}`, strings.Repeat("x", 512)))
			So(resp.StatusCode, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When the queue is full", func() {
			resp, body := do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", `{"solutions":[["a",0,"AC",[1,"min"]]]}`)
			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			So(body["code"], ShouldEqual, "backpressure")
		})
	})

	Convey("Given an API whose service is stopped", t, func() {
		srv := newServer(stubDeps{submitErr: queue.ErrQueueClosed}, stubStats{})
		defer srv.Close()

		resp, _ := do(http.MethodPost, srv.URL+"/ranklists/wf/solutions", `{"solutions":[["a",0,"AC",[1,"min"]]]}`)
		So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
	})
}
