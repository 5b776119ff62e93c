package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T, secure bool) *auth.SessionManager {
	t.Helper()
	store := sessions.NewCookieStore([]byte("test-session-key-must-be-32-chars-long"))
	sm, err := auth.NewSessionManager(store, auth.Config{
		Name:       "test.sid",
		TTL:        24 * time.Hour,
		TouchAfter: time.Hour,
		Secure:     secure,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response %q: %v", rec.Body.String(), err)
	}
	return body
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_NilStore(t *testing.T) {
	if _, err := auth.NewSessionManager(nil, auth.Config{}, zap.NewNop()); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t, false)

	req := httptest.NewRequest("GET", "/get-user", nil)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != auth.MsgUnauthorized {
		t.Errorf("message = %v", body["message"])
	}
	if body["authenticated"] != false {
		t.Errorf("authenticated = %v, want false", body["authenticated"])
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t, false)

	req := withUser(httptest.NewRequest("GET", "/get-user", nil), models.RoleDonor)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireAdmin_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t, false)

	req := httptest.NewRequest("GET", "/get-users", nil)
	rec := httptest.NewRecorder()
	sm.RequireAdmin(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAdmin_WrongRole_Returns403WithRole(t *testing.T) {
	sm := newTestSessionManager(t, false)

	for _, role := range []string{models.RoleDonor, models.RoleVolunteer} {
		t.Run(role, func(t *testing.T) {
			req := withUser(httptest.NewRequest("GET", "/get-users", nil), role)
			rec := httptest.NewRecorder()
			sm.RequireAdmin(okHandler()).ServeHTTP(rec, req)

			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
			}
			body := decodeBody(t, rec)
			if body["message"] != auth.MsgAdminOnly {
				t.Errorf("message = %v", body["message"])
			}
			if body["authenticated"] != true {
				t.Errorf("authenticated = %v, want true", body["authenticated"])
			}
			if body["role"] != role {
				t.Errorf("role = %v, want %q", body["role"], role)
			}
		})
	}
}

func TestRequireAdmin_Admin_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t, false)

	req := withUser(httptest.NewRequest("GET", "/get-users", nil), models.RoleAdmin)
	rec := httptest.NewRecorder()
	sm.RequireAdmin(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireAdmin_RoleComparedNormalized(t *testing.T) {
	sm := newTestSessionManager(t, false)

	req := withUser(httptest.NewRequest("GET", "/get-users", nil), " ADMIN ")
	rec := httptest.NewRecorder()
	sm.RequireAdmin(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestSessionUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *auth.SessionUser
		want bool
	}{
		{"admin", &auth.SessionUser{Role: "admin"}, true},
		{"upper case", &auth.SessionUser{Role: "ADMIN"}, true},
		{"padded", &auth.SessionUser{Role: " admin "}, true},
		{"volunteer", &auth.SessionUser{Role: "volunteer"}, false},
		{"empty", &auth.SessionUser{}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignIn_ThenLoadSessionUser(t *testing.T) {
	sm := newTestSessionManager(t, false)
	want := auth.SessionUser{
		ID:         primitive.NewObjectID().Hex(),
		Email:      "donor@example.com",
		Name:       "Donor",
		Role:       models.RoleDonor,
		Status:     models.StatusActive,
		BloodGroup: "O+",
		District:   "Dhaka",
	}

	loginRec := httptest.NewRecorder()
	if err := sm.SignIn(loginRec, httptest.NewRequest("POST", "/login", nil), want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := loginRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	c := cookies[0]
	if !c.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax outside production", c.SameSite)
	}
	if c.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/get-user", nil)
	req.AddCookie(c)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if *got != want {
		t.Errorf("snapshot = %+v, want %+v", *got, want)
	}
}

func TestSignIn_SecureCookieIsSameSiteNone(t *testing.T) {
	sm := newTestSessionManager(t, true)

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{ID: "x"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	c := rec.Result().Cookies()[0]
	if !c.Secure || c.SameSite != http.SameSiteNoneMode {
		t.Errorf("Secure=%v SameSite=%v, want Secure + None", c.Secure, c.SameSite)
	}
}

func TestSignOut_WithoutSession(t *testing.T) {
	sm := newTestSessionManager(t, false)

	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/logout", nil)); err != nil {
		t.Fatalf("SignOut without session: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestRefresh_OverwritesSnapshot(t *testing.T) {
	sm := newTestSessionManager(t, false)
	u := auth.SessionUser{ID: "u1", Email: "a@example.com", Name: "Old", Role: models.RoleDonor}

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), u); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookie := rec.Result().Cookies()[0]

	u.Name = "New"
	req := httptest.NewRequest("PATCH", "/update-user/u1", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	if err := sm.Refresh(rec, req, u); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	cookie = rec.Result().Cookies()[0]

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req = httptest.NewRequest("GET", "/get-user", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Name != "New" {
		t.Errorf("snapshot after refresh = %+v, want name New", got)
	}
}

func TestLoadSessionUser_NoCookie(t *testing.T) {
	sm := newTestSessionManager(t, false)

	called := false
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected no user without a cookie")
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if !called {
		t.Error("next handler not called")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("anonymous requests must not get a session cookie")
	}
}

func TestSnapshotOf_Defaults(t *testing.T) {
	u := models.User{
		ID:          primitive.NewObjectID(),
		Email:       "legacy@example.com",
		Password:    "$2a$10$digest",
		DisplayName: "Legacy Name",
		PhotoURL:    "https://img/legacy.png",
	}

	s := auth.SnapshotOf(u)
	if s.Role != models.RoleDonor {
		t.Errorf("Role = %q, want donor", s.Role)
	}
	if s.Status != models.StatusActive {
		t.Errorf("Status = %q, want active", s.Status)
	}
	if s.Name != "Legacy Name" || s.Image != "https://img/legacy.png" {
		t.Errorf("fallbacks not applied: %+v", s)
	}
	if s.ID != u.ID.Hex() {
		t.Errorf("ID = %q", s.ID)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	if _, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil)); ok {
		t.Error("expected no user")
	}
}

func withUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Email: role + "@example.com",
		Name:  "Test " + role,
		Role:  role,
	})
}
