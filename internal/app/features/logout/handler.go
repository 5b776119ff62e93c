// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auditlog"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"go.uber.org/zap"
)

const (
	MsgLoggedOut    = "Logout successful"
	MsgLogoutFailed = "Failed to logout"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// HandleLogout handles POST /logout. It succeeds without a session too;
// only a failing session store is reported.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, signedIn := auth.CurrentUser(r)

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: destroy session", zap.Error(err))
		httpjson.Message(w, http.StatusInternalServerError, MsgLogoutFailed)
		return
	}

	if signedIn {
		h.AuditLog.Logout(r.Context(), r, user.ID, user.Email)
	}
	httpjson.OK(w, map[string]any{"message": MsgLoggedOut})
}
