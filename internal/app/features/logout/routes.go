// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// MountRoutes registers POST /logout. It is deliberately public: signing
// out without a session still clears the cookie and returns 200.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/logout", h.HandleLogout)
}
