// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the session read endpoints on the supplied router.
// check-auth is public; the handler itself checks the session.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/check-auth", h.ServeCheckAuth)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/get-user-role", h.ServeRole)
		pr.Get("/get-user-status", h.ServeStatus)
	})
}
