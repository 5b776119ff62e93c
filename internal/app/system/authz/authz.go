// internal/app/system/authz/authz.go
package authz

import (
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
)

// Messages for the ownership checks.
const (
	MsgOwnProfileOnly = "Forbidden: You can only update your own profile"
	MsgOwnHistoryOnly = "Forbidden: You can only access your own donation history"
)

// SameIdentityOrAdmin reports whether u may act on the record owned by
// ownerID: either it is u's own record or u is an admin.
func SameIdentityOrAdmin(u *auth.SessionUser, ownerID string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	return u.ID != "" && u.ID == ownerID
}

// SameEmailOrAdmin is SameIdentityOrAdmin keyed by email. Emails compare in
// their normalized form.
func SameEmailOrAdmin(u *auth.SessionUser, ownerEmail string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	mine := normalize.Email(u.Email)
	return mine != "" && mine == normalize.Email(ownerEmail)
}
