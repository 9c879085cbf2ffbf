// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/kursor/internal/metrics"
	"github.com/tomtom215/kursor/internal/recommend"
	"github.com/tomtom215/kursor/internal/store"
)

// Recommender is the engine surface the API depends on.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) *recommend.Response
	TrainUserPreferences(ctx context.Context, userID int64) bool
}

// UserStore is the store surface the API depends on.
type UserStore interface {
	UpsertUser(ctx context.Context, u store.User) error
	GetUserPreferences(ctx context.Context, userID int64) (recommend.UserProfile, error)
	GetQueryHistory(ctx context.Context, userID int64, limit int) ([]store.QueryRecord, error)
	LogQuery(ctx context.Context, userID int64, query string) error
}

// Handler implements the HTTP API endpoints.
type Handler struct {
	recommender Recommender
	users       UserStore
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewHandler creates the API handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(recommender Recommender, users UserStore, logger zerolog.Logger) *Handler {
	return &Handler{
		recommender: recommender,
		users:       users,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

// recommendPayload is the POST /recommend body. Out-of-range hybrid
// weights are clamped by the engine, not rejected here; validation only
// guards against nonsensical shapes.
type recommendPayload struct {
	Query        string   `json:"query" validate:"max=1000"`
	UserID       int64    `json:"user_id" validate:"gte=0"`
	Limit        int      `json:"limit" validate:"gte=0"`
	HybridWeight *float64 `json:"hybrid_weight"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Recommend ranks the catalog against the query. The engine never
// fails a request; a degraded or empty result is still a 200.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var payload recommendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if payload.UserID > 0 && payload.Query != "" {
		if err := h.users.LogQuery(r.Context(), payload.UserID, payload.Query); err != nil {
			h.logger.Warn().Err(err).Int64("user_id", payload.UserID).Msg("failed to log query")
		}
	}

	start := time.Now()
	resp := h.recommender.Recommend(r.Context(), recommend.Request{
		Query:        payload.Query,
		UserID:       payload.UserID,
		Limit:        payload.Limit,
		HybridWeight: payload.HybridWeight,
		RequestID:    RequestID(r.Context()),
	})
	metrics.ObserveRecommend(payload.UserID > 0, len(resp.Items), time.Since(start))
	h.writeJSON(w, r, http.StatusOK, resp)
}

// registerPayload is the POST /users body.
type registerPayload struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	Username  string `json:"username" validate:"max=255"`
	FirstName string `json:"first_name" validate:"max=255"`
	LastName  string `json:"last_name" validate:"max=255"`
}

// RegisterUser creates or refreshes a user record. Registration is
// idempotent; re-registering updates the identity fields and touches
// last activity.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	u := store.User{
		UserID:    payload.UserID,
		Username:  payload.Username,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	}
	if err := h.users.UpsertUser(r.Context(), u); err != nil {
		h.logger.Error().Err(err).Int64("user_id", payload.UserID).Msg("failed to register user")
		h.writeError(w, r, http.StatusInternalServerError, "failed to register user")
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"user_id": payload.UserID})
}

// TrainPreferences rebuilds the user's tag-affinity profile from their
// positive interaction history.
func (h *Handler) TrainPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	trained := h.recommender.TrainUserPreferences(r.Context(), userID)
	metrics.ObserveTraining(trained)
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"user_id": userID,
		"trained": trained,
	})
}

// GetPreferences returns the user's stored profile.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	profile, err := h.users.GetUserPreferences(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load preferences")
		h.writeError(w, r, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	h.writeJSON(w, r, http.StatusOK, profile)
}

// GetHistory returns the user's recent queries, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	history, err := h.users.GetQueryHistory(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load history")
		h.writeError(w, r, http.StatusInternalServerError, "failed to load history")
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"user_id": userID,
		"queries": history,
	})
}

// userIDParam parses the {userID} route parameter. Writes a 400 and
// returns false on malformed input.
func (h *Handler) userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		h.writeError(w, r, http.StatusBadRequest, "userID must be a positive integer")
		return 0, false
	}
	return userID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).
			Str("request_id", RequestID(r.Context())).
			Msg("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, errorResponse{
		Error:     msg,
		RequestID: RequestID(r.Context()),
	})
}
