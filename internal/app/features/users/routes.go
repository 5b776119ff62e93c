// internal/app/features/users/routes.go
package users

import (
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the account endpoints on r. publicWrite wraps the
// unauthenticated add-user route (throttling).
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager, publicWrite ...func(http.Handler) http.Handler) {
	// Public: registration is how new accounts appear.
	r.With(publicWrite...).Post("/add-user", h.HandleAddUser)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/get-user", h.ServeCurrentUser)
		pr.Patch("/update-user/{id}", h.HandleUpdateUser)
		pr.Get("/get-users-for-volunteer", h.ServeList)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireAdmin)
		ar.Get("/get-users", h.ServeList)
		ar.Patch("/update-role", h.HandleUpdateRole)
		ar.Patch("/update-status", h.HandleUpdateStatus)
	})
}
