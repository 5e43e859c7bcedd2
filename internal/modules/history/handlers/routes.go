package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleAppend)

		// Values never to be drawn again
		r.Route("/avoid", func(r chi.Router) {
			r.Get("/", h.HandleGetAvoid)
			r.Put("/", h.HandlePutAvoid)
			r.Delete("/", h.HandleClearAvoid)
		})
	})
}
