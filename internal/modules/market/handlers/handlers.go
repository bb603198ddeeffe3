// Package handlers provides HTTP handlers for quotes, charts and the
// market overview.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
	"github.com/aristath/stockdash/internal/modules/market"
)

// Handler handles market data HTTP requests
type Handler struct {
	service *market.Service
	log     zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(service *market.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "market").Logger(),
	}
}

// HandleGetQuote returns the current snapshot for a ticker
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	result, err := h.service.Quote(r.Context(), ticker)
	if err != nil {
		h.writeError(w, providerStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetHistory returns candles with indicator overlays
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	periodParam := r.URL.Query().Get("period")
	if periodParam == "" {
		periodParam = "1y"
	}
	period, err := marketdata.ParsePeriod(periodParam)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := h.service.History(r.Context(), ticker, period)
	if err != nil {
		h.writeError(w, providerStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"period": period.String(),
		"points": points,
	})
}

// HandleGetOverview returns the major index snapshots
func (h *Handler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	overview := h.service.Overview(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"indices": overview})
}

// providerStatus maps provider error kinds to HTTP status codes
func providerStatus(err error) int {
	switch {
	case errors.Is(err, marketdata.ErrNoDataForPeriod):
		return http.StatusNotFound
	case errors.Is(err, marketdata.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
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
