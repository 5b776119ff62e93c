package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/inputval"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /get-users, GET /get-users-for-volunteer                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList lists every user except the caller, without password digests.
// The admin and volunteer routes share it; only their gates differ.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.ListExcept(ctx, me.Email)
	if err != nil {
		httpjson.Internal(w, h.Log, "list users", err)
		return
	}
	httpjson.OK(w, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /update-role, PATCH /update-status                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type roleInput struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
	Role  string `json:"role" validate:"required,role" label:"Role"`
}

type statusInput struct {
	Email  string `json:"email" validate:"required,email" label:"Email"`
	Status string `json:"status" validate:"required,userstatus" label:"Status"`
}

// decodeValid decodes the body into dst and runs its rules, answering 400
// on failure.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpjson.Decode(w, r, dst); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		httpjson.Message(w, http.StatusBadRequest, res.First())
		return false
	}
	return true
}

func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var in roleInput
	if !decodeValid(w, r, &in) {
		return
	}
	me, _ := auth.CurrentUser(r)
	email, role := normalize.Email(in.Email), normalize.Role(in.Role)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Users.SetRoleByEmail(ctx, email, role)
	if err != nil {
		httpjson.Internal(w, h.Log, "update-role", err)
		return
	}
	if res.MatchedCount > 0 {
		h.AuditLog.RoleChanged(ctx, r, me.ID, email, role)
	}
	httpjson.OK(w, res)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !decodeValid(w, r, &in) {
		return
	}
	me, _ := auth.CurrentUser(r)
	email, status := normalize.Email(in.Email), normalize.Status(in.Status)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Users.SetStatusByEmail(ctx, email, status)
	if err != nil {
		httpjson.Internal(w, h.Log, "update-status", err)
		return
	}
	if res.MatchedCount > 0 {
		h.AuditLog.StatusChanged(ctx, r, me.ID, email, status)
		if status != models.StatusActive {
			h.revokeSessions(ctx, email)
		}
	}
	httpjson.OK(w, res)
}

// revokeSessions signs a deactivated account out everywhere. Failures are
// logged; the status change itself has already been written.
func (h *Handler) revokeSessions(ctx context.Context, email string) {
	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		h.Log.Warn("update-status: load user for session revoke", zap.String("email", email), zap.Error(err))
		return
	}
	n, err := h.SessionMgr.RevokeUser(ctx, u.ID.Hex())
	if err != nil {
		h.Log.Warn("update-status: revoke sessions", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		return
	}
	if n > 0 {
		h.Log.Info("sessions revoked", zap.String("user_id", u.ID.Hex()), zap.Int64("count", n))
	}
}
