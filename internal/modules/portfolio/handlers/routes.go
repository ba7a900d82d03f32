package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Post("/recommendations", h.HandleRecommend) // Run the pipeline
		r.Get("/runs/{id}", h.HandleGetRun)           // Archived run by ID
		r.Get("/stream", h.HandleStream)              // Websocket run with progress events
	})
}
