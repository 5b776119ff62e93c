// internal/app/features/contact/routes.go
package contact

import (
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the public contact form and the admin inbox.
// publicWrite wraps the form submission (throttling).
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager, publicWrite ...func(http.Handler) http.Handler) {
	r.With(publicWrite...).Post("/contact", h.HandleSubmit)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireAdmin)
		ar.Get("/contacts", h.ServeList)
		ar.Patch("/contacts/{id}/read", h.HandleMarkRead)
	})
}
