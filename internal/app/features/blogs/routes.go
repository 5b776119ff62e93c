// internal/app/features/blogs/routes.go
package blogs

import (
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the blog endpoints. Publishing is admin-only.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/get-blogs-public", h.ServePublished)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/add-blog", h.HandleAdd)
		pr.Get("/get-blogs", h.ServeAll)
		pr.Get("/blog-details/{id}", h.ServeOne)
		pr.Delete("/delete-blog/{id}", h.HandleDelete)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireAdmin)
		ar.Patch("/update-blog-status", h.HandleStatus)
	})
}
