package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "bloodbridge.sid"
	DefaultTTL         = 14 * 24 * time.Hour
	DefaultTouchAfter  = 24 * time.Hour

	keyID         = "id"
	keyEmail      = "email"
	keyName       = "name"
	keyImage      = "image"
	keyRole       = "role"
	keyStatus     = "status"
	keyBloodGroup = "bloodGroup"
	keyDistrict   = "district"
	keyUpazila    = "upazila"
	keyPhone      = "phone"
	keyTouchedAt  = "touched_at"
)

// Response bodies for the two gates.
const (
	MsgUnauthorized = "Unauthorized: Please log in"
	MsgAdminOnly    = "Forbidden: Admin access required"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session user                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the snapshot of a user stored in the session at sign-in.
// It is not re-read on every request; Refresh overwrites it after the user
// edits their own profile.
type SessionUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	BloodGroup string `json:"bloodGroup"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
	Phone      string `json:"phone"`
}

// SnapshotOf builds the session snapshot for u, applying role and status
// defaults. The password digest is never part of it.
func SnapshotOf(u models.User) SessionUser {
	role := u.Role
	if role == "" {
		role = models.RoleDonor
	}
	status := u.Status
	if status == "" {
		status = models.StatusActive
	}
	name := u.Name
	if name == "" {
		name = u.DisplayName
	}
	image := u.Image
	if image == "" {
		image = u.PhotoURL
	}
	return SessionUser{
		ID:         u.ID.Hex(),
		Email:      u.Email,
		Name:       name,
		Image:      image,
		Role:       role,
		Status:     status,
		BloodGroup: u.BloodGroup,
		District:   u.District,
		Upazila:    u.Upazila,
		Phone:      u.Phone,
	}
}

// IsAdmin reports whether the user holds the admin role. Roles compare in
// their normalized form.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && normalize.Role(u.Role) == models.RoleAdmin
}

// Public is the subset returned by login and check-auth.
func (u *SessionUser) Public() map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"image": u.Image,
		"role":  u.Role,
	}
}

func (u *SessionUser) writeTo(s *sessions.Session) {
	s.Values[keyID] = u.ID
	s.Values[keyEmail] = u.Email
	s.Values[keyName] = u.Name
	s.Values[keyImage] = u.Image
	s.Values[keyRole] = u.Role
	s.Values[keyStatus] = u.Status
	s.Values[keyBloodGroup] = u.BloodGroup
	s.Values[keyDistrict] = u.District
	s.Values[keyUpazila] = u.Upazila
	s.Values[keyPhone] = u.Phone
}

func readUser(s *sessions.Session) (*SessionUser, bool) {
	id := getString(s, keyID)
	if id == "" {
		return nil, false
	}
	return &SessionUser{
		ID:         id,
		Email:      getString(s, keyEmail),
		Name:       getString(s, keyName),
		Image:      getString(s, keyImage),
		Role:       getString(s, keyRole),
		Status:     getString(s, keyStatus),
		BloodGroup: getString(s, keyBloodGroup),
		District:   getString(s, keyDistrict),
		Upazila:    getString(s, keyUpazila),
		Phone:      getString(s, keyPhone),
	}, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Config controls the session cookie.
type Config struct {
	Name       string
	Domain     string
	TTL        time.Duration
	TouchAfter time.Duration
	Secure     bool

	// Now stamps touched_at. Nil means time.Now.
	Now func() time.Time
}

// SessionManager reads and writes the session snapshot and provides the
// authentication middleware. Any gorilla Store works; production uses the
// MongoDB-backed store, tests use a cookie store.
type SessionManager struct {
	store      sessions.Store
	name       string
	touchAfter time.Duration
	options    sessions.Options
	log        *zap.Logger
	now        func() time.Time
}

// recordStore is implemented by stores that keep session records server
// side, such as the MongoDB store.
type recordStore interface {
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// NewSessionManager builds a SessionManager over store.
//
// In production (Secure=true) cookies are Secure + SameSite=None so a
// separately hosted front end can send them. Over plain http in
// development, SameSite=Lax.
func NewSessionManager(store sessions.Store, cfg Config, logger *zap.Logger) (*SessionManager, error) {
	if store == nil {
		return nil, errors.New("session store is nil")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultSessionName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TouchAfter <= 0 {
		cfg.TouchAfter = DefaultTouchAfter
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.TTL / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.Secure {
		opts.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session manager initialized",
		zap.String("name", cfg.Name),
		zap.Bool("secure", cfg.Secure),
		zap.String("domain", cfg.Domain),
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("touch_after", cfg.TouchAfter))

	return &SessionManager{
		store:      store,
		name:       cfg.Name,
		touchAfter: cfg.TouchAfter,
		options:    opts,
		log:        logger,
		now:        cfg.Now,
	}, nil
}

// Name returns the cookie name.
func (sm *SessionManager) Name() string { return sm.name }

func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	s, err := sm.store.Get(r, sm.name)
	if err != nil {
		// A cookie that no longer verifies (rotated key, tampering) or a
		// store hiccup: carry on with the fresh session gorilla hands back.
		sm.log.Debug("session lookup failed", zap.Error(err))
	}
	if s == nil {
		s = sessions.NewSession(sm.store, sm.name)
		s.IsNew = true
	}
	opts := sm.options
	s.Options = &opts
	return s
}

// SignIn replaces whatever the session held with u's snapshot and saves it.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	s := sm.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	// New id on sign-in so a session id seen before authentication is never
	// promoted. The old record goes with it.
	if s.ID != "" {
		if rs, ok := sm.store.(recordStore); ok {
			if err := rs.Delete(r.Context(), s.ID); err != nil {
				sm.log.Warn("delete previous session failed", zap.Error(err))
			}
		}
	}
	s.ID = ""
	u.writeTo(s)
	sm.stamp(s)
	return s.Save(r, w)
}

// Refresh overwrites the snapshot in the current session, keeping its id.
func (sm *SessionManager) Refresh(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	s := sm.session(r)
	u.writeTo(s)
	sm.stamp(s)
	return s.Save(r, w)
}

// SignOut destroys the session record and expires the cookie. Signing out
// without a session is not an error.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	s := sm.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// RevokeUser ends every stored session belonging to userID and returns how
// many were removed. Stores that keep no server-side records, such as the
// cookie store, report 0.
func (sm *SessionManager) RevokeUser(ctx context.Context, userID string) (int64, error) {
	rs, ok := sm.store.(recordStore)
	if !ok || userID == "" {
		return 0, nil
	}
	return rs.DeleteByUser(ctx, userID)
}

func (sm *SessionManager) stamp(s *sessions.Session) {
	s.Values[keyTouchedAt] = sm.now().UTC().Format(time.RFC3339)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser attaches the session snapshot to the request context and
// extends the session lifetime, at most once per touch interval.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := sm.session(r)
		u, ok := readUser(s)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if sm.needsTouch(s) {
			sm.stamp(s)
			if err := s.Save(r, w); err != nil {
				sm.log.Warn("session touch failed", zap.Error(err))
			}
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

func (sm *SessionManager) needsTouch(s *sessions.Session) bool {
	raw := getString(s, keyTouchedAt)
	if raw == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return sm.now().Sub(t) >= sm.touchAfter
}

// RequireSignedIn rejects requests without a session user with 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Write(w, http.StatusUnauthorized, map[string]any{
				"message":       MsgUnauthorized,
				"authenticated": false,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects non-admin users with 403, echoing their role. It
// includes the RequireSignedIn check, so it can be used on its own.
func (sm *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := CurrentUser(r)
		if !u.IsAdmin() {
			httpjson.Write(w, http.StatusForbidden, map[string]any{
				"message":       MsgAdminOnly,
				"authenticated": true,
				"role":          u.Role,
			})
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser puts u into the request context without a session. Tests
// only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
