// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// MountRoutes registers the credential endpoints on r.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/login", h.HandleLogin)
	r.Post("/social-login", h.HandleSocialLogin)
	r.Post("/set-password", h.HandleSetPassword)
}
