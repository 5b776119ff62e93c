package donorstore

import (
	"context"

	docstore "github.com/bloodbridge/bloodbridge/internal/app/store/docs"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection holds donor commitments to donation requests.
const Collection = "donorInfo"

type Store struct {
	docs *docstore.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{docs: docstore.New(db, Collection)}
}

// Add records a donor committing to a request. createdAt is stamped when
// absent so history ordering works.
func (s *Store) Add(ctx context.Context, doc models.Document) (models.InsertResult, error) {
	return s.docs.Insert(ctx, doc, true)
}

// ByDonorEmail returns one donor's commitments, newest first.
func (s *Store) ByDonorEmail(ctx context.Context, email string) ([]models.Document, error) {
	return s.docs.Find(ctx,
		bson.M{models.KeyDonorEmail: email},
		bson.D{{Key: models.KeyCreatedAt, Value: -1}},
	)
}

// ByDonationID returns the commitments made to one request.
func (s *Store) ByDonationID(ctx context.Context, donationID string) ([]models.Document, error) {
	return s.docs.Find(ctx, bson.M{models.KeyDonationID: donationID}, nil)
}
