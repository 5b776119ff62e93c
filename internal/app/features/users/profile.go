package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	userstore "github.com/bloodbridge/bloodbridge/internal/app/store/users"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/authz"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/password"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /get-user                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeCurrentUser returns the signed-in user's full record with display
// defaults applied. A session whose user no longer exists is destroyed.
func (h *Handler) ServeCurrentUser(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, me.ID)
	if errors.Is(err, userstore.ErrNotFound) {
		if err := h.SessionMgr.SignOut(w, r); err != nil {
			h.Log.Warn("get-user: destroy orphaned session", zap.Error(err))
		}
		httpjson.Message(w, http.StatusNotFound, MsgUserNotFound)
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "get-user", err)
		return
	}

	httpjson.OK(w, u.WithDefaults())
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /update-user/{id}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdateUser applies a partial profile update. Only keys in
// models.UserUpdatableFields are written; anything else in the body is
// dropped. A self-update refreshes the session snapshot.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r)
	id := chi.URLParam(r, "id")

	if !authz.SameIdentityOrAdmin(me, id) {
		httpjson.Message(w, http.StatusForbidden, authz.MsgOwnProfileOnly)
		return
	}

	var body map[string]any
	if err := httpjson.Decode(w, r, &body); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	set, err := h.profileUpdate(body)
	if errors.Is(err, errPasswordLength) {
		httpjson.Message(w, http.StatusBadRequest, MsgPasswordLength)
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update-user", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Users.UpdateByID(ctx, id, set)
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Message(w, http.StatusNotFound, MsgUserNotFound)
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update-user", err)
		return
	}

	if id == me.ID {
		h.refreshSession(ctx, w, r, id)
	}
	h.AuditLog.ProfileUpdated(ctx, r, me.ID, id)
	httpjson.OK(w, res)
}

// errPasswordLength rejects a new password shorter than password.MinLength.
var errPasswordLength = errors.New("password too short")

// profileUpdate builds the $set document from body. A new password is
// hashed; errPasswordLength means it was too short.
func (h *Handler) profileUpdate(body map[string]any) (bson.M, error) {
	set := bson.M{}
	for k, v := range body {
		if !models.UserUpdatableFields[k] {
			continue
		}
		set[k] = v
	}

	raw, ok := set["password"]
	if !ok {
		return set, nil
	}
	plain, _ := raw.(string)
	if plain == "" {
		delete(set, "password")
		return set, nil
	}
	if !password.LongEnough(plain) {
		return nil, errPasswordLength
	}
	digest, err := h.Hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	set["password"] = digest
	return set, nil
}

// refreshSession rewrites the caller's snapshot from the stored record.
// Failure leaves the old snapshot in place.
func (h *Handler) refreshSession(ctx context.Context, w http.ResponseWriter, r *http.Request, id string) {
	snap, err := h.Fetcher.FetchSnapshot(ctx, id)
	if err != nil {
		h.Log.Warn("update-user: reload snapshot", zap.String("user_id", id), zap.Error(err))
		return
	}
	if err := h.SessionMgr.Refresh(w, r, snap); err != nil {
		h.Log.Warn("update-user: refresh session", zap.String("user_id", id), zap.Error(err))
	}
}
