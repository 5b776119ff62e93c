package home

import (
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// Root response values.
const (
	MsgRunning    = "Server is running!"
	SessionActive = "Session active"
	SessionNone   = "No session"
)

// Handler serves the root liveness check.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		Log: logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – liveness                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot reports that the server is up and whether the caller has a
// signed-in session. It never touches the database.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	session := SessionNone
	if _, ok := auth.CurrentUser(r); ok {
		session = SessionActive
	}
	httpjson.OK(w, map[string]string{
		"message": MsgRunning,
		"session": session,
	})
}
