package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sessionstore "github.com/bloodbridge/bloodbridge/internal/app/store/sessions"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/bloodbridge/bloodbridge/internal/testutil"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	suiteTTL        = 24 * time.Hour
	suiteTouchAfter = time.Hour
)

// StoredSessionSuite runs the session manager over the MongoDB store with a
// controllable clock.
type StoredSessionSuite struct {
	suite.Suite
	db   *mongo.Database
	sm   *auth.SessionManager
	now  time.Time
	user auth.SessionUser
}

func TestStoredSessionSuite(t *testing.T) {
	suite.Run(t, new(StoredSessionSuite))
}

func (s *StoredSessionSuite) SetupTest() {
	s.db = testutil.SetupTestDB(s.T())
	s.now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	store := sessionstore.New(s.db, []byte("test-session-key-must-be-32-chars-long"))
	store.SetClock(clock)

	sm, err := auth.NewSessionManager(store, auth.Config{
		Name:       auth.DefaultSessionName,
		TTL:        suiteTTL,
		TouchAfter: suiteTouchAfter,
		Now:        clock,
	}, zap.NewNop())
	s.Require().NoError(err)
	s.sm = sm

	s.user = auth.SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Email: "donor@example.com",
		Role:  models.RoleDonor,
	}
}

func (s *StoredSessionSuite) signIn(cookie *http.Cookie) *http.Cookie {
	req := httptest.NewRequest("POST", "/login", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.Require().NoError(s.sm.SignIn(rec, req, s.user))
	c := testutil.SessionCookie(rec)
	s.Require().NotNil(c, "sign-in must set a cookie")
	return c
}

// visit sends one request through LoadSessionUser and reports whether the
// response carried a cookie (i.e. the session was saved).
func (s *StoredSessionSuite) visit(cookie *http.Cookie) bool {
	var seen bool
	h := s.sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/get-user", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	s.Require().True(seen, "session user must load")
	return testutil.SessionCookie(rec) != nil
}

func (s *StoredSessionSuite) records() []sessionstore.Record {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	cur, err := s.db.Collection(sessionstore.Collection).Find(ctx, bson.M{"user_id": s.user.ID})
	s.Require().NoError(err)
	var out []sessionstore.Record
	s.Require().NoError(cur.All(ctx, &out))
	return out
}

func (s *StoredSessionSuite) onlyRecord() sessionstore.Record {
	recs := s.records()
	s.Require().Len(recs, 1)
	return recs[0]
}

func (s *StoredSessionSuite) TestTouch_AtMostOncePerInterval() {
	start := s.now
	cookie := s.signIn(nil)

	rec := s.onlyRecord()
	s.Equal(start.Format(time.RFC3339), rec.Data["touched_at"])
	s.True(rec.ExpiresAt.Equal(start.Add(suiteTTL)), "expires_at = %v", rec.ExpiresAt)

	// Inside the interval: nothing is written.
	s.now = start.Add(suiteTouchAfter - time.Minute)
	s.False(s.visit(cookie), "no save expected inside the touch interval")
	rec = s.onlyRecord()
	s.Equal(start.Format(time.RFC3339), rec.Data["touched_at"])
	s.True(rec.ExpiresAt.Equal(start.Add(suiteTTL)), "expires_at moved early: %v", rec.ExpiresAt)

	// Past the interval: one refresh extends the lifetime.
	touched := start.Add(suiteTouchAfter + time.Minute)
	s.now = touched
	s.True(s.visit(cookie), "expected a save once the interval has passed")
	rec = s.onlyRecord()
	s.Equal(touched.Format(time.RFC3339), rec.Data["touched_at"])
	s.True(rec.ExpiresAt.Equal(touched.Add(suiteTTL)), "expires_at = %v, want %v", rec.ExpiresAt, touched.Add(suiteTTL))

	// The next request right after is quiet again.
	s.now = touched.Add(time.Minute)
	s.False(s.visit(cookie))
	s.True(s.onlyRecord().ExpiresAt.Equal(touched.Add(suiteTTL)))
}

func (s *StoredSessionSuite) TestSessionOutlivesTTLOnlyWhenTouched() {
	start := s.now
	cookie := s.signIn(nil)

	// Keep visiting every 23h; each visit is past the touch interval.
	for i := 1; i <= 3; i++ {
		s.now = start.Add(time.Duration(i) * 23 * time.Hour)
		s.True(s.visit(cookie), "visit %d should refresh", i)
	}

	// Silence for longer than the TTL ends the session.
	s.now = s.now.Add(suiteTTL + time.Minute)
	var loaded bool
	h := s.sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, loaded = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/get-user", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)
	s.False(loaded, "an expired record must not load")
}

func (s *StoredSessionSuite) TestSignIn_ReplacesPreviousRecord() {
	first := s.signIn(nil)
	oldID := s.onlyRecord().ID

	s.now = s.now.Add(time.Minute)
	second := s.signIn(first)

	rec := s.onlyRecord()
	s.NotEqual(oldID, rec.ID, "sign-in must issue a new session id")
	s.NotEqual(first.Value, second.Value)

	// The old cookie no longer finds a session.
	var loaded bool
	h := s.sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, loaded = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/get-user", nil)
	req.AddCookie(first)
	h.ServeHTTP(httptest.NewRecorder(), req)
	s.False(loaded, "the pre-sign-in session must be gone")
}

func (s *StoredSessionSuite) TestRevokeUser() {
	s.signIn(nil)
	s.signIn(nil)
	s.Len(s.records(), 2)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := s.sm.RevokeUser(ctx, s.user.ID)
	s.Require().NoError(err)
	s.EqualValues(2, n)
	s.Empty(s.records())
}

func TestRevokeUser_CookieStoreIsNoop(t *testing.T) {
	sm := newTestSessionManager(t, false)
	n, err := sm.RevokeUser(t.Context(), "anyone")
	if err != nil || n != 0 {
		t.Errorf("RevokeUser on cookie store = (%d, %v), want (0, nil)", n, err)
	}
}
