// internal/app/features/donors/routes.go
package donors

import (
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the donor endpoints. The history summary and the
// donor directory are public.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/donor-history", h.ServeSummary)
	r.Get("/get-donors", h.ServeDirectory)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/add-donor", h.HandleAdd)
		pr.Get("/donor-history/{email}", h.ServeHistory)
		pr.Get("/find-donor", h.ServeByDonation)
	})
}
