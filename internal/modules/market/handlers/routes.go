package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/{ticker}", h.HandleGetQuote)
		r.Get("/{ticker}/history", h.HandleGetHistory)
	})
	r.Get("/market/overview", h.HandleGetOverview)
}
