package api

import (
	"context"
	"net/http"

	"github.com/okian/socgpa/internal/domain/model"
	"github.com/okian/socgpa/internal/domain/types"
)

// AchievementDependencies defines the operations used by AchievementsHandler.
type AchievementDependencies interface {
	SubmitAchievement(ctx context.Context, sub types.Submission) (types.SubmissionResult, error)
	Achievement(ctx context.Context, id string) (model.Achievement, error)
}

// AchievementsHandler handles achievement submission and lookup.
type AchievementsHandler struct {
	deps AchievementDependencies
}

// NewAchievementsHandler creates a new achievements handler.
func NewAchievementsHandler(deps AchievementDependencies) *AchievementsHandler {
	return &AchievementsHandler{deps: deps}
}

// HandleSubmit handles POST /achievements requests.
func (h *AchievementsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_achievement"
	sub, err := decodeSubmission(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := sub.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.SubmitAchievement(r.Context(), sub)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleGet handles GET /achievements/{id} requests.
func (h *AchievementsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_achievement"
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	a, err := h.deps.Achievement(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
