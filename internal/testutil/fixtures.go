package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/password"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FastHasher is a bcrypt Hasher at the minimum cost, for tests.
var FastHasher = password.Bcrypt{Cost: bcrypt.MinCost}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user with the given role and no password.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()
	return f.InsertUser(ctx, models.User{Name: name, Email: email, Role: role, Status: models.StatusActive})
}

// CreateUserWithPassword inserts an active donor whose password is plain.
func (f *Fixtures) CreateUserWithPassword(ctx context.Context, email, plain string) models.User {
	f.t.Helper()
	digest, err := FastHasher.Hash(plain)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	return f.InsertUser(ctx, models.User{
		Name:     "Test Donor",
		Email:    email,
		Password: digest,
		Role:     models.RoleDonor,
		Status:   models.StatusActive,
	})
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// InsertUser inserts u as given, filling in ID and CreatedAt when unset.
func (f *Fixtures) InsertUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt == "" {
		u.CreatedAt = models.Timestamp(time.Now())
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateDonationRequest inserts a request owned by requesterEmail and
// returns its ObjectID.
func (f *Fixtures) CreateDonationRequest(ctx context.Context, requesterEmail, status string, extra models.Document) primitive.ObjectID {
	f.t.Helper()
	doc := models.Document{
		"_id":                    primitive.NewObjectID(),
		models.KeyRequesterEmail: requesterEmail,
		models.KeyDonationStatus: status,
		models.KeyCreatedAt:      models.Timestamp(time.Now()),
	}
	for k, v := range extra {
		doc[k] = v
	}
	if _, err := f.db.Collection("donationRequest").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create donation request: %v", err)
	}
	return doc["_id"].(primitive.ObjectID)
}

// CreateDonorInfo records donorEmail committing to donationID at createdAt.
func (f *Fixtures) CreateDonorInfo(ctx context.Context, donorEmail, donationID, createdAt string) primitive.ObjectID {
	f.t.Helper()
	id := primitive.NewObjectID()
	doc := models.Document{
		"_id":                id,
		models.KeyDonorEmail: donorEmail,
		"donorName":          "Donor " + donorEmail,
		models.KeyDonationID: donationID,
		models.KeyCreatedAt:  createdAt,
	}
	if _, err := f.db.Collection("donorInfo").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create donor info: %v", err)
	}
	return id
}

// CreateBlog inserts a blog with the given title and status.
func (f *Fixtures) CreateBlog(ctx context.Context, title, status string) primitive.ObjectID {
	f.t.Helper()
	id := primitive.NewObjectID()
	doc := models.Document{
		"_id":               id,
		"title":             title,
		models.KeyContent:   "<p>" + title + "</p>",
		models.KeyStatus:    status,
		models.KeyCreatedAt: models.Timestamp(time.Now()),
	}
	if _, err := f.db.Collection("blogs").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create blog: %v", err)
	}
	return id
}
