package home

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET / on r.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.ServeRoot)
}
