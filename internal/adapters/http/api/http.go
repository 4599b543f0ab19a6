// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/socgpa/internal/adapters/repository"
	"github.com/okian/socgpa/internal/domain/classify"
	"github.com/okian/socgpa/internal/domain/model"
	"github.com/okian/socgpa/internal/domain/types"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	SubmitAchievement(ctx context.Context, sub types.Submission) (types.SubmissionResult, error)
	Classify(ctx context.Context, sub types.Submission) (classify.Result, error)
	Achievement(ctx context.Context, id string) (model.Achievement, error)
	SocialScore(ctx context.Context, userID string) (types.ScoreReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	achievementsHandler *AchievementsHandler
	classifyHandler     *ClassifyHandler
	scoreHandler        *ScoreHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		achievementsHandler: NewAchievementsHandler(deps),
		classifyHandler:     NewClassifyHandler(deps),
		scoreHandler:        NewScoreHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /achievements", MetricsMiddleware(s.achievementsHandler.HandleSubmit, "achievements_submit"))
	mux.HandleFunc("GET /achievements/{id}", MetricsMiddleware(s.achievementsHandler.HandleGet, "achievements_get"))
	mux.HandleFunc("POST /classify", MetricsMiddleware(s.classifyHandler.HandleClassify, "classify"))
	mux.HandleFunc("GET /users/{id}/score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeSubmission(w http.ResponseWriter, r *http.Request) (types.Submission, error) {
	var sub types.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&sub); err != nil {
		return types.Submission{}, err
	}
	return sub, nil
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

// writeUpstreamError maps service errors to a status code.
func writeUpstreamError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, types.ErrMissingUserID), errors.Is(err, types.ErrMissingTitle),
		errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
