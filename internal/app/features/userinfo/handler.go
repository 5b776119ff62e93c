// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
)

// Handler answers questions about the current session. Nothing here reads
// the database; the answers come from the session snapshot.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeCheckAuth handles GET /check-auth. It never fails.
//
// Response format:
//
//	{ "authenticated": false }
//	{ "authenticated": true, "user": { "id", "email", "name", "image", "role" } }
func (h *Handler) ServeCheckAuth(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.OK(w, map[string]any{"authenticated": false})
		return
	}
	httpjson.OK(w, map[string]any{
		"authenticated": true,
		"user":          user.Public(),
	})
}

// ServeRole handles GET /get-user-role.
func (h *Handler) ServeRole(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	var role any
	if user.Role != "" {
		role = user.Role
	}
	httpjson.OK(w, map[string]any{
		"msg":    "ok",
		"role":   role,
		"status": statusOf(user),
	})
}

// ServeStatus handles GET /get-user-status.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	httpjson.OK(w, map[string]any{"status": statusOf(user)})
}

func statusOf(u *auth.SessionUser) string {
	if u.Status == "" {
		return models.StatusActive
	}
	return u.Status
}
