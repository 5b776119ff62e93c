// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the audit log listing. Admins only.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireAdmin)
		ar.Get("/audit-events", h.ServeList)
	})
}
