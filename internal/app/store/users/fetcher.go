package userstore

import (
	"context"

	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher rebuilds session snapshots from the stored user record. It is used
// after a self-profile update so the session reflects what was written.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a Fetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection(Collection)}
}

// snapshotProjection loads only the fields a session carries.
var snapshotProjection = bson.M{
	"_id":         1,
	"email":       1,
	"name":        1,
	"image":       1,
	"displayName": 1,
	"photoURL":    1,
	"role":        1,
	"status":      1,
	"bloodGroup":  1,
	"district":    1,
	"upazila":     1,
	"phone":       1,
}

// FetchSnapshot returns the current snapshot for userID. ErrNotFound is
// returned for a malformed id or a missing record.
func (f *Fetcher) FetchSnapshot(ctx context.Context, userID string) (auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return auth.SessionUser{}, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	opts := options.FindOne().SetProjection(snapshotProjection)
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return auth.SessionUser{}, ErrNotFound
		}
		return auth.SessionUser{}, err
	}
	return auth.SnapshotOf(u), nil
}
