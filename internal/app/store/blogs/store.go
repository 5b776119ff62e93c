package blogstore

import (
	"context"
	"errors"

	docstore "github.com/bloodbridge/bloodbridge/internal/app/store/docs"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection holds blog posts.
const Collection = "blogs"

// ErrInvalidID is returned for ids that are not ObjectIDs where one is required.
var ErrInvalidID = errors.New("invalid blog id")

type Store struct {
	docs *docstore.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{docs: docstore.New(db, Collection)}
}

// Create inserts a post. Status defaults to draft; createdAt is stamped when absent.
func (s *Store) Create(ctx context.Context, doc models.Document) (models.InsertResult, error) {
	if doc == nil {
		doc = models.Document{}
	}
	if v, ok := doc[models.KeyStatus].(string); !ok || !models.IsValidBlogStatus(v) {
		doc[models.KeyStatus] = models.BlogDraft
	}
	return s.docs.Insert(ctx, doc, true)
}

// List returns every post, newest first.
func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	return s.docs.Find(ctx, nil, newestFirst)
}

// ListPublished returns published posts, newest first.
func (s *Store) ListPublished(ctx context.Context) ([]models.Document, error) {
	return s.docs.Find(ctx, bson.M{models.KeyStatus: models.BlogPublished}, newestFirst)
}

// Get returns the post for the path id, or nil.
func (s *Store) Get(ctx context.Context, id string) (models.Document, error) {
	return s.docs.Get(ctx, id)
}

// SetStatus publishes or unpublishes a post. Posts are addressed by ObjectID.
func (s *Store) SetStatus(ctx context.Context, id, status string) (models.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.UpdateResult{}, ErrInvalidID
	}
	return s.docs.SetWhere(ctx, bson.M{"_id": oid}, models.Document{models.KeyStatus: status})
}

// Delete removes a post. Posts are addressed by ObjectID.
func (s *Store) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.DeleteResult{}, ErrInvalidID
	}
	return s.docs.DeleteWhere(ctx, bson.M{"_id": oid})
}

var newestFirst = bson.D{{Key: models.KeyCreatedAt, Value: -1}}
