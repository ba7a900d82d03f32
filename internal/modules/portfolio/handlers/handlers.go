// Package handlers provides HTTP handlers for portfolio recommendations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

// Recommender is the part of portfolio.Service the handlers use
type Recommender interface {
	RecommendWithObserver(ctx context.Context, req domain.PortfolioRequest, obs portfolio.Observer) (*portfolio.Outcome, error)
	GetRun(ctx context.Context, runID string) (*portfolio.Outcome, error)
}

// Handler handles portfolio HTTP requests
type Handler struct {
	service         Recommender
	defaultCurrency string
	log             zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service Recommender, defaultCurrency string, log zerolog.Logger) *Handler {
	return &Handler{
		service:         service,
		defaultCurrency: defaultCurrency,
		log:             log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleRecommend runs the pipeline for the posted request
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var body RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, err := body.ToDomain(h.defaultCurrency)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	outcome, err := h.service.RecommendWithObserver(r.Context(), req, nil)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, outcome)
}

// HandleGetRun returns an archived run
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var invalid *domain.InvalidRequestError
	switch {
	case errors.As(err, &invalid):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": invalid.Error(), "field": invalid.Field})
	case errors.Is(err, portfolio.ErrRunNotFound), errors.Is(err, portfolio.ErrArchiveDisabled):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("Portfolio request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
