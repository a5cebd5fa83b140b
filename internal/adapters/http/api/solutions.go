package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/pkg/logger"
)

// SolutionsHandler accepts solution batches for incremental application.
type SolutionsHandler struct {
	deps         Dependencies
	maxBatchSize int
	maxBytes     int64
	logger       logger.Logger
}

// NewSolutionsHandler creates a new solutions handler.
func NewSolutionsHandler(deps Dependencies, maxBatchSize int, maxBytes int64, l logger.Logger) *SolutionsHandler {
	return &SolutionsHandler{deps: deps, maxBatchSize: maxBatchSize, maxBytes: maxBytes, logger: l}
}

// solutionsRequest carries tetrads: [userId, problemIndex, result, [value, unit]].
type solutionsRequest struct {
	ID        string        `json:"id"`
	Solutions []model.Event `json:"solutions"`
}

func (req solutionsRequest) validate(maxBatch int) error {
	if len(req.Solutions) == 0 {
		return errors.New("missing solutions")
	}
	if len(req.Solutions) > maxBatch {
		return fmt.Errorf("%w: %d solutions, at most %d", ErrPayloadTooLarge, len(req.Solutions), maxBatch)
	}
	for i, e := range req.Solutions {
		if strings.TrimSpace(e.UserID) == "" {
			return fmt.Errorf("solution %d: missing user id", i)
		}
		if e.ProblemIndex < 0 {
			return fmt.Errorf("solution %d: negative problem index", i)
		}
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	BatchID   string `json:"batch_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePost handles POST /ranklists/{id}/solutions.
func (h *SolutionsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_solutions"
	id := r.PathValue("id")

	var req solutionsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes)).Decode(&req); err != nil {
		writeUpstreamError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxBatchSize); err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			writeUpstreamError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	batchID, duplicate, err := h.deps.SubmitSolutions(r.Context(), id, req.ID, req.Solutions)
	if err != nil {
		h.logger.Warn(r.Context(), "solution batch rejected",
			logger.String("ranklist_id", id),
			logger.String("batch_id", req.ID),
			logger.Error(err),
		)
		writeUpstreamError(w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", BatchID: batchID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", BatchID: batchID})
}
