package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all plan routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/plans", func(r chi.Router) {
		r.Post("/", h.HandleGenerate)
		r.Get("/", h.HandleList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Get("/summary", h.HandleSummary)

			// Editing (rejected once the plan is committed)
			r.Post("/regenerate", h.HandleRegenerateAll)
			r.Post("/players/{playerID}/regenerate", h.HandleRegeneratePlayer)
			r.Post("/adjust", h.HandleAdjust)
			r.Post("/extra", h.HandleAddExtra)

			r.Post("/commit", h.HandleCommit)
		})
	})
}
