package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all scenario routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Get("/summary", h.HandleSummary)
			r.Get("/performance", h.HandlePerformance)
			r.Get("/vs-benchmark", h.HandleVsBenchmark)

			r.Route("/holdings", func(r chi.Router) {
				r.Post("/", h.HandleAddHolding)
				r.Delete("/{ticker}", h.HandleRemoveHolding)
			})
		})
	})
}
