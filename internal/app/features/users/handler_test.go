package users_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bloodbridge/bloodbridge/internal/app/features/users"
	"github.com/bloodbridge/bloodbridge/internal/app/services/registration"
	sessionstore "github.com/bloodbridge/bloodbridge/internal/app/store/sessions"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/authz"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/bloodbridge/bloodbridge/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	handler  *users.Handler
	sm       *auth.SessionManager
	fixtures *testutil.Fixtures
	router   chi.Router
}

func newTestHandler(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sm := testutil.NewSessionManager(t)
	// Pass nil for audit logger and metrics (handler has nil checks)
	h := users.NewHandler(db, testutil.FastHasher, sm, nil, nil, zap.NewNop())

	r := chi.NewRouter()
	r.Use(sm.LoadSessionUser)
	users.MountRoutes(r, h, sm)

	return env{handler: h, sm: sm, fixtures: testutil.NewFixtures(t, db), router: r}
}

func asTestUser(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role, Status: u.Status}
}

/*─────────────────────────────────────────────────────────────────────────────*
| add-user                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func TestHandleAddUser_Outcomes(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	post := func(body any) map[string]any {
		t.Helper()
		rec := testutil.NewRecorder()
		e.handler.HandleAddUser(rec, testutil.NewJSONRequest("POST", "/add-user", body))
		rec.AssertStatus(t, http.StatusOK)
		return rec.JSON(t)
	}

	created := post(map[string]any{"email": "New@Example.com", "name": "New", "password": "secret1"})
	if created["outcome"] != string(registration.OutcomeCreated) || created["insertedId"] == nil {
		t.Errorf("created: got %v", created)
	}

	existing := post(map[string]any{"email": "new@example.com", "phone": "0171"})
	if existing["outcome"] != string(registration.OutcomeExisting) || existing["msg"] != registration.MsgExisting {
		t.Errorf("existing: got %v", existing)
	}

	legacy := e.fixtures.CreateUser(ctx, "Legacy", "legacy@example.com", models.RoleDonor)
	claimed := post(map[string]any{"email": "legacy@example.com", "password": "claimed1"})
	if claimed["outcome"] != string(registration.OutcomeClaimed) || claimed["message"] != registration.MsgClaimed {
		t.Errorf("claimed: got %v", claimed)
	}
	if claimed["insertedId"] != legacy.ID.Hex() {
		t.Errorf("claimed insertedId: got %v, want %s", claimed["insertedId"], legacy.ID.Hex())
	}

	stored, err := e.handler.Users.GetByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if stored.LoginCount != 2 || stored.Name != "New" || stored.Phone != "0171" {
		t.Errorf("merged record: count=%d name=%q phone=%q", stored.LoginCount, stored.Name, stored.Phone)
	}
}

func TestHandleAddUser_Validation(t *testing.T) {
	e := newTestHandler(t)

	for name, body := range map[string]any{
		"missing email": map[string]any{"name": "x"},
		"bad email":     map[string]any{"email": "not-an-email"},
		"malformed":     "{",
	} {
		t.Run(name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			e.handler.HandleAddUser(rec, testutil.NewJSONRequest("POST", "/add-user", body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| get-user                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func TestServeCurrentUser(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.InsertUser(ctx, models.User{
		Email:       "legacy@example.com",
		Password:    "digest-never-shown",
		DisplayName: "From Provider",
		PhotoURL:    "https://img.example.com/p.png",
	})

	rec := testutil.NewRecorder()
	e.handler.ServeCurrentUser(rec, testutil.NewAuthenticatedRequest("GET", "/get-user", asTestUser(u)))

	rec.AssertStatus(t, http.StatusOK)
	body := rec.JSON(t)
	if _, leaked := body["password"]; leaked {
		t.Error("password digest leaked")
	}
	want := map[string]any{
		"_id":                u.ID.Hex(),
		"name":               "From Provider",
		"image":              "https://img.example.com/p.png",
		"role":               models.RoleDonor,
		"status":             models.StatusActive,
		"availabilityStatus": models.DefaultAvailability,
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("%s: got %v, want %v", k, body[k], v)
		}
	}
}

func TestServeCurrentUser_VanishedUserDestroysSession(t *testing.T) {
	e := newTestHandler(t)

	ghost := testutil.DonorUser()
	rec := testutil.NewRecorder()
	e.handler.ServeCurrentUser(rec, testutil.NewAuthenticatedRequest("GET", "/get-user", ghost))

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, users.MsgUserNotFound)
	c := testutil.SessionCookie(rec.ResponseRecorder)
	if c == nil || c.MaxAge >= 0 {
		t.Errorf("expected an expiring session cookie, got %+v", c)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| update-user                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func updateRequest(target models.User, body any, as testutil.TestUser) *http.Request {
	req := testutil.NewJSONRequest("PATCH", "/update-user/"+target.ID.Hex(), body)
	req = testutil.WithUser(req, as)
	return testutil.WithChiURLParam(req, "id", target.ID.Hex())
}

func TestHandleUpdateUser_SameIdentityOrAdmin(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := e.fixtures.CreateUser(ctx, "A", "a@example.com", models.RoleDonor)
	b := e.fixtures.CreateUser(ctx, "B", "b@example.com", models.RoleDonor)
	volunteer := e.fixtures.CreateUser(ctx, "V", "v@example.com", models.RoleVolunteer)
	admin := e.fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")

	tests := []struct {
		name   string
		as     models.User
		target models.User
		status int
	}{
		{"other donor is forbidden", a, b, http.StatusForbidden},
		{"volunteer is forbidden", volunteer, b, http.StatusForbidden},
		{"self is allowed", b, b, http.StatusOK},
		{"admin is allowed", admin, b, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			e.handler.HandleUpdateUser(rec, updateRequest(tt.target, map[string]any{"district": "Sylhet"}, asTestUser(tt.as)))
			rec.AssertStatus(t, tt.status)
			if tt.status == http.StatusForbidden {
				rec.AssertContains(t, authz.MsgOwnProfileOnly)
			}
		})
	}
}

func TestHandleUpdateUser_DropsProtectedFieldsAndHashesPassword(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "Self", "self@example.com", models.RoleDonor)

	rec := testutil.NewRecorder()
	e.handler.HandleUpdateUser(rec, updateRequest(u, map[string]any{
		"name":     "Renamed",
		"role":     "admin",
		"status":   "active",
		"email":    "elsewhere@example.com",
		"password": "newpass1",
	}, asTestUser(u)))
	rec.AssertStatus(t, http.StatusOK)
	body := rec.JSON(t)
	if body["matchedCount"] != float64(1) || body["acknowledged"] != true {
		t.Errorf("update result: got %v", body)
	}

	stored, err := e.handler.Users.GetByID(ctx, u.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Name != "Renamed" {
		t.Errorf("name: got %q", stored.Name)
	}
	if stored.Role != models.RoleDonor || stored.Email != "self@example.com" {
		t.Errorf("protected fields changed: role=%q email=%q", stored.Role, stored.Email)
	}
	if err := testutil.FastHasher.Verify("newpass1", stored.Password); err != nil {
		t.Errorf("password not hashed and stored: %v", err)
	}
}

func TestHandleUpdateUser_ShortPassword(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "Self", "self@example.com", models.RoleDonor)
	rec := testutil.NewRecorder()
	e.handler.HandleUpdateUser(rec, updateRequest(u, map[string]any{"password": "123"}, asTestUser(u)))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, users.MsgPasswordLength)
}

func TestHandleUpdateUser_RefreshesOwnSession(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "Before", "self@example.com", models.RoleDonor)

	signIn := httptest.NewRecorder()
	if err := e.sm.SignIn(signIn, httptest.NewRequest("POST", "/login", nil), auth.SnapshotOf(u)); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookie := testutil.SessionCookie(signIn)

	req := testutil.NewJSONRequest("PATCH", "/update-user/"+u.ID.Hex(), map[string]any{"name": "After", "bloodGroup": "AB-"})
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d (%s)", rec.Code, rec.Body.String())
	}

	refreshed := testutil.SessionCookie(rec)
	if refreshed == nil {
		t.Fatal("self-update should rewrite the session cookie")
	}

	var seen *auth.SessionUser
	check := httptest.NewRequest("GET", "/", nil)
	check.AddCookie(refreshed)
	e.sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), check)

	if seen == nil {
		t.Fatal("refreshed cookie does not authenticate")
	}
	if seen.Name != "After" || seen.BloodGroup != "AB-" {
		t.Errorf("snapshot not refreshed: %+v", seen)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| lists and admin updates                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func TestServeList_ExcludesCallerAndPasswords(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := e.fixtures.CreateUserWithPassword(ctx, "me@example.com", "secret1")
	e.fixtures.CreateUserWithPassword(ctx, "other@example.com", "secret1")
	e.fixtures.CreateUser(ctx, "Third", "third@example.com", models.RoleVolunteer)

	rec := testutil.NewRecorder()
	e.handler.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/get-users-for-volunteer", asTestUser(me)))
	rec.AssertStatus(t, http.StatusOK)

	list := rec.JSONList(t)
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
	for _, u := range list {
		if u["email"] == "me@example.com" {
			t.Error("caller included in list")
		}
		if _, leaked := u["password"]; leaked {
			t.Error("password leaked in list")
		}
	}
}

func TestRoutes_Gates(t *testing.T) {
	e := newTestHandler(t)

	signedInAs := func(role string) *http.Cookie {
		rec := httptest.NewRecorder()
		if err := e.sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{
			ID: primitive.NewObjectID().Hex(), Email: role + "@example.com", Role: role, Status: models.StatusActive,
		}); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		return testutil.SessionCookie(rec)
	}

	// Anonymous
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest("GET", "/get-users", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)

	// Volunteer hits the admin list: 403 echoing the role.
	req := httptest.NewRequest("GET", "/get-users", nil)
	req.AddCookie(signedInAs(models.RoleVolunteer))
	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
	body := rec.JSON(t)
	if body["role"] != models.RoleVolunteer || body["authenticated"] != true || body["message"] != auth.MsgAdminOnly {
		t.Errorf("forbidden body: got %v", body)
	}

	// Volunteer may use the volunteer list.
	req = httptest.NewRequest("GET", "/get-users-for-volunteer", nil)
	req.AddCookie(signedInAs(models.RoleVolunteer))
	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	// Admin passes.
	req = httptest.NewRequest("GET", "/get-users", nil)
	req.AddCookie(signedInAs(models.RoleAdmin))
	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
}

func TestHandleUpdateRoleAndStatus(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateUser(ctx, "Target", "target@example.com", models.RoleDonor)
	admin := testutil.AdminUser()

	rec := testutil.NewRecorder()
	req := testutil.WithUser(testutil.NewJSONRequest("PATCH", "/update-role", map[string]string{
		"email": "TARGET@example.com", "role": "Volunteer",
	}), admin)
	e.handler.HandleUpdateRole(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	if got := rec.JSON(t)["modifiedCount"]; got != float64(1) {
		t.Errorf("modifiedCount: got %v", got)
	}

	rec = testutil.NewRecorder()
	req = testutil.WithUser(testutil.NewJSONRequest("PATCH", "/update-status", map[string]string{
		"email": "target@example.com", "status": "suspended",
	}), admin)
	e.handler.HandleUpdateStatus(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	stored, err := e.handler.Users.GetByEmail(ctx, "target@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if stored.Role != models.RoleVolunteer || stored.Status != models.StatusSuspended {
		t.Errorf("got role=%q status=%q", stored.Role, stored.Status)
	}

	rec = testutil.NewRecorder()
	req = testutil.WithUser(testutil.NewJSONRequest("PATCH", "/update-role", map[string]string{
		"email": "target@example.com", "role": "superuser",
	}), admin)
	e.handler.HandleUpdateRole(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdateUser_PasswordLengthCountsCharacters(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "Self", "self@example.com", models.RoleDonor)

	// Six bytes, three characters.
	rec := testutil.NewRecorder()
	e.handler.HandleUpdateUser(rec, updateRequest(u, map[string]any{"password": "ñññ"}, asTestUser(u)))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, users.MsgPasswordLength)

	rec = testutil.NewRecorder()
	e.handler.HandleUpdateUser(rec, updateRequest(u, map[string]any{"password": "ñññççç"}, asTestUser(u)))
	rec.AssertStatus(t, http.StatusOK)
}

type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("hasher unavailable") }
func (brokenHasher) Verify(string, string) error { return errors.New("hasher unavailable") }

func TestHandleUpdateUser_HashFailureIsServerError(t *testing.T) {
	e := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "Self", "self@example.com", models.RoleDonor)
	e.handler.Hasher = brokenHasher{}

	rec := testutil.NewRecorder()
	e.handler.HandleUpdateUser(rec, updateRequest(u, map[string]any{"password": "newpass1"}, asTestUser(u)))
	rec.AssertStatus(t, http.StatusInternalServerError)
	if msg := rec.JSON(t)["message"]; msg != httpjson.InternalMessage {
		t.Errorf("message = %v, want %q", msg, httpjson.InternalMessage)
	}
}

func TestHandleUpdateStatus_RevokesSessionsOfDeactivatedUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := sessionstore.New(db, []byte("test-session-key-must-be-32-chars-long"))
	sm, err := auth.NewSessionManager(store, auth.Config{Name: "test.sid"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := users.NewHandler(db, testutil.FastHasher, sm, nil, nil, zap.NewNop())
	fx := testutil.NewFixtures(t, db)

	target := fx.CreateUser(ctx, "Target", "target@example.com", models.RoleDonor)
	other := fx.CreateUser(ctx, "Other", "other@example.com", models.RoleDonor)
	for _, u := range []models.User{target, target, other} {
		if err := sm.SignIn(httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil), auth.SnapshotOf(u)); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
	}

	countFor := func(u models.User) int64 {
		t.Helper()
		n, err := db.Collection(sessionstore.Collection).CountDocuments(ctx, bson.M{"user_id": u.ID.Hex()})
		if err != nil {
			t.Fatalf("count sessions: %v", err)
		}
		return n
	}
	if countFor(target) != 2 {
		t.Fatalf("expected 2 sessions for target before the change, got %d", countFor(target))
	}

	setStatus := func(status string) {
		t.Helper()
		rec := testutil.NewRecorder()
		h.HandleUpdateStatus(rec, testutil.WithUser(testutil.NewJSONRequest("PATCH", "/update-status", map[string]string{
			"email": "target@example.com", "status": status,
		}), testutil.AdminUser()))
		rec.AssertStatus(t, http.StatusOK)
	}

	setStatus(models.StatusInactive)
	if n := countFor(target); n != 0 {
		t.Errorf("target sessions after deactivation = %d, want 0", n)
	}
	if n := countFor(other); n != 1 {
		t.Errorf("other user's sessions = %d, want 1", n)
	}

	if err := sm.SignIn(httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil), auth.SnapshotOf(target)); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	setStatus(models.StatusActive)
	if n := countFor(target); n != 1 {
		t.Errorf("reactivation must keep sessions, got %d", n)
	}
}
