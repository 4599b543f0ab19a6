package api

import (
	"context"
	"net/http"

	"github.com/okian/socgpa/internal/domain/types"
)

// ScoreDependencies defines the Social GPA report operation.
type ScoreDependencies interface {
	SocialScore(ctx context.Context, userID string) (types.ScoreReport, error)
}

// ScoreHandler handles score report requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleScore handles GET /users/{id}/score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.social_score"
	report, err := h.deps.SocialScore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
