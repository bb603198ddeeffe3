// Package handlers provides the screener HTTP endpoint.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/modules/screener"
)

// Handler handles screener HTTP requests
type Handler struct {
	service *screener.Service
	log     zerolog.Logger
}

// NewHandler creates a new screener handler
func NewHandler(service *screener.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "screener").Logger(),
	}
}

// RegisterRoutes registers the screener routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/screener", h.HandleScreen)
}

// screenRequest is the screener request payload
type screenRequest struct {
	Tickers []string        `json:"tickers,omitempty"`
	Filter  screener.Filter `json:"filter"`
}

// HandleScreen screens a ticker universe against the supplied filter
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Screen(r.Context(), req.Tickers, req.Filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
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
