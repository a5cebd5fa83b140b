// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/ranklist/internal/adapters/mq/queue"
	"github.com/okian/ranklist/internal/adapters/repository"
	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/scoring"
	"github.com/okian/ranklist/pkg/duration"
	"github.com/okian/ranklist/pkg/logger"
)

// Default request limits.
const (
	defaultMaxBatchSize     = 10000
	defaultMaxDocumentBytes = 64 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// PutRanklist stores a document, optionally regenerating it first.
	PutRanklist(ctx context.Context, id string, rl *model.Ranklist, regenerate bool) (*model.Ranklist, error)

	// Static and StaticUntil expose ranked views.
	Static(ctx context.Context, id string) (*model.StaticRanklist, error)
	StaticUntil(ctx context.Context, id string, until duration.TimeDuration) (*model.StaticRanklist, error)

	// SubmitSolutions queues a batch; the bool reports an already seen batch.
	SubmitSolutions(ctx context.Context, id, batchID string, events []model.Event) (string, bool, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	ranklistsHandler *RanklistsHandler
	solutionsHandler *SolutionsHandler

	maxBatchSize     int
	maxDocumentBytes int64
	logger           logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBatchSize:     defaultMaxBatchSize,
		maxDocumentBytes: defaultMaxDocumentBytes,
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.ranklistsHandler = NewRanklistsHandler(deps, s.maxDocumentBytes, s.logger)
	s.solutionsHandler = NewSolutionsHandler(deps, s.maxBatchSize, s.maxDocumentBytes, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("PUT /ranklists/{id}", MetricsMiddleware(s.ranklistsHandler.HandlePut, "ranklists_put"))
	mux.HandleFunc("GET /ranklists/{id}", MetricsMiddleware(s.ranklistsHandler.HandleGet, "ranklists_get"))
	mux.HandleFunc("POST /ranklists/{id}/solutions", MetricsMiddleware(s.solutionsHandler.HandlePost, "solutions"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError translates errors from the service into HTTP responses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidID), errors.Is(err, repository.ErrNilUpdate):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, scoring.ErrNotRegenerable):
		writeError(w, http.StatusUnprocessableEntity, "not_regenerable", err)
	case errors.Is(err, scoring.ErrInvalidSorterConfig):
		writeError(w, http.StatusUnprocessableEntity, "invalid_sorter_config", err)
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, queue.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
