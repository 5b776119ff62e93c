package donationstore

import (
	"context"

	docstore "github.com/bloodbridge/bloodbridge/internal/app/store/docs"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection holds donation requests.
const Collection = "donationRequest"

type Store struct {
	docs *docstore.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{docs: docstore.New(db, Collection)}
}

// Create inserts a request as sent. createdAt is stamped when absent and
// donationStatus defaults to pending.
func (s *Store) Create(ctx context.Context, doc models.Document) (models.InsertResult, error) {
	if doc == nil {
		doc = models.Document{}
	}
	if v, ok := doc[models.KeyDonationStatus]; !ok || v == nil || v == "" {
		doc[models.KeyDonationStatus] = models.DonationPending
	}
	return s.docs.Insert(ctx, doc, true)
}

// List returns every request, newest first.
func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	return s.docs.Find(ctx, nil, newestFirst)
}

// ListPending returns requests still waiting for a donor.
func (s *Store) ListPending(ctx context.Context) ([]models.Document, error) {
	return s.docs.Find(ctx, bson.M{models.KeyDonationStatus: models.DonationPending}, newestFirst)
}

// Get returns the request for the path id, or nil.
func (s *Store) Get(ctx context.Context, id string) (models.Document, error) {
	return s.docs.Get(ctx, id)
}

// Update $sets the given fields on the request.
func (s *Store) Update(ctx context.Context, id string, set models.Document) (models.UpdateResult, error) {
	return s.docs.Set(ctx, id, set)
}

// SetStatus changes donationStatus. The value is an open string.
func (s *Store) SetStatus(ctx context.Context, id, status string) (models.UpdateResult, error) {
	return s.docs.Set(ctx, id, models.Document{models.KeyDonationStatus: status})
}

// Delete removes the request.
func (s *Store) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	return s.docs.Delete(ctx, id)
}

var newestFirst = bson.D{{Key: models.KeyCreatedAt, Value: -1}}
