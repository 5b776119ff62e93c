package bootstrap

import (
	"testing"

	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/bloodbridge/bloodbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func loadUser(t *testing.T, deps DBDeps, email string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var u models.User
	if err := deps.MongoDatabase.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		t.Fatalf("failed to find user %s: %v", email, err)
	}
	return u
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "Admin@BloodBridge.com ", "123456", testutil.FastHasher, nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u := loadUser(t, deps, "admin@bloodbridge.com")
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role %q, got %q", models.RoleAdmin, u.Role)
	}
	if u.Status != models.StatusActive {
		t.Errorf("expected status %q, got %q", models.StatusActive, u.Status)
	}
	if u.Name != "Admin" {
		t.Errorf("expected name Admin, got %q", u.Name)
	}
	if u.LoginCount != 0 || u.CreatedAt == "" {
		t.Errorf("expected loginCount 0 and createdAt set, got %d / %q", u.LoginCount, u.CreatedAt)
	}
	if err := testutil.FastHasher.Verify("123456", u.Password); err != nil {
		t.Errorf("stored digest does not verify: %v", err)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	existing := f.InsertUser(ctx, models.User{
		Email:  "ops@example.com",
		Name:   "Ops Lead",
		Role:   models.RoleVolunteer,
		Status: models.StatusSuspended,
		Phone:  "01700000000",
	})

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "ops@example.com", "new-secret", testutil.FastHasher, nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u := loadUser(t, deps, "ops@example.com")
	if u.ID != existing.ID {
		t.Fatalf("expected the existing account to be updated, got a new id")
	}
	if u.Role != models.RoleAdmin || u.Status != models.StatusActive {
		t.Errorf("got role=%q status=%q", u.Role, u.Status)
	}
	if u.Name != "Ops Lead" {
		t.Errorf("existing name should be kept, got %q", u.Name)
	}
	if u.Phone != "01700000000" {
		t.Errorf("unrelated fields should be kept, got phone %q", u.Phone)
	}
	if err := testutil.FastHasher.Verify("new-secret", u.Password); err != nil {
		t.Errorf("password not replaced: %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestEnsureAdmin_RejectsShortPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// "ñññññ" is ten bytes but five characters.
	for _, pw := range []string{"123", "ñññññ"} {
		err := ensureAdmin(ctx, DBDeps{MongoDatabase: db}, "admin@bloodbridge.com", pw, testutil.FastHasher, nil, testLogger())
		if err == nil {
			t.Errorf("expected error for short password %q", pw)
		}
	}
}

func TestStartup_SkipsWithoutPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := AppConfig{AdminEmail: "admin@bloodbridge.com"}
	if err := Startup(ctx, nil, cfg, DBDeps{MongoDatabase: db}, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no users, got %d", n)
	}
}
