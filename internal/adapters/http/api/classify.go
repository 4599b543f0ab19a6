package api

import (
	"context"
	"net/http"

	"github.com/okian/socgpa/internal/domain/classify"
	"github.com/okian/socgpa/internal/domain/types"
)

// ClassifyDependencies defines the dry-run classification operation.
type ClassifyDependencies interface {
	Classify(ctx context.Context, sub types.Submission) (classify.Result, error)
}

// ClassifyHandler handles classification requests that store nothing.
type ClassifyHandler struct {
	deps ClassifyDependencies
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(deps ClassifyDependencies) *ClassifyHandler {
	return &ClassifyHandler{deps: deps}
}

// HandleClassify handles POST /classify requests.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	sub, err := decodeSubmission(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := sub.ValidateTitle(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Classify(r.Context(), sub)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
