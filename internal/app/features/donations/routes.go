// internal/app/features/donations/routes.go
package donations

import (
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the donation request endpoints. The pending list and
// the statistics are public; everything else needs a session.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/all-donation-requests-public", h.ServePublic)
	r.Get("/public-stats", h.ServeStats)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/create-donation-request", h.HandleCreate)
		pr.Get("/my-donation-request", h.ServeMine)
		pr.Get("/all-donation-requests", h.ServeAll)
		pr.Get("/details/{id}", h.ServeOne)
		pr.Get("/get-donation-request/{id}", h.ServeOne)
		pr.Put("/update-donation-request/{id}", h.HandleUpdate)
		pr.Patch("/donation-status", h.HandleStatus)
		pr.Delete("/delete-request/{id}", h.HandleDelete)
	})
}
