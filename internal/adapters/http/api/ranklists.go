package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/duration"
	"github.com/okian/ranklist/pkg/logger"
)

// RanklistsHandler stores and serves ranklist documents.
type RanklistsHandler struct {
	deps     Dependencies
	maxBytes int64
	logger   logger.Logger
}

// NewRanklistsHandler creates a new ranklists handler.
func NewRanklistsHandler(deps Dependencies, maxBytes int64, l logger.Logger) *RanklistsHandler {
	return &RanklistsHandler{deps: deps, maxBytes: maxBytes, logger: l}
}

type putResponse struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Rows        int    `json:"rows"`
	Regenerated bool   `json:"regenerated"`
}

// HandlePut handles PUT /ranklists/{id}[?regenerate=true].
func (h *RanklistsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_ranklist"
	id := r.PathValue("id")

	regenerate := false
	if v := r.URL.Query().Get("regenerate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("regenerate: %w", err)))
			return
		}
		regenerate = b
	}

	var rl model.Ranklist
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes)).Decode(&rl); err != nil {
		writeUpstreamError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	out, err := h.deps.PutRanklist(r.Context(), id, &rl, regenerate)
	if err != nil {
		h.logger.Warn(r.Context(), "ranklist rejected", logger.String("ranklist_id", id), logger.Error(err))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, putResponse{ID: id, Version: out.Version, Rows: len(out.Rows), Regenerated: regenerate})
}

// HandleGet handles GET /ranklists/{id}[?until=3h].
func (h *RanklistsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranklist"
	id := r.PathValue("id")

	var (
		static *model.StaticRanklist
		err    error
	)
	if v := r.URL.Query().Get("until"); v != "" {
		until, perr := duration.Parse(v)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, perr))
			return
		}
		static, err = h.deps.StaticUntil(r.Context(), id, until)
	} else {
		static, err = h.deps.Static(r.Context(), id)
	}
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, static)
}
