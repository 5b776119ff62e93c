package contactstore

import (
	"context"
	"time"

	docstore "github.com/bloodbridge/bloodbridge/internal/app/store/docs"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection holds contact-form messages.
const Collection = "contacts"

type Store struct {
	docs *docstore.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{docs: docstore.New(db, Collection)}
}

// Create stores a message. createdAt and read=false always overwrite
// whatever the sender supplied.
func (s *Store) Create(ctx context.Context, doc models.Document) (models.InsertResult, error) {
	if doc == nil {
		doc = models.Document{}
	}
	delete(doc, "_id")
	doc[models.KeyCreatedAt] = models.Timestamp(time.Now())
	doc[models.KeyRead] = false
	return s.docs.Insert(ctx, doc, false)
}

// List returns messages newest first. unreadOnly drops messages already read.
func (s *Store) List(ctx context.Context, unreadOnly bool) ([]models.Document, error) {
	filter := bson.M{}
	if unreadOnly {
		filter[models.KeyRead] = false
	}
	return s.docs.Find(ctx, filter, bson.D{{Key: models.KeyCreatedAt, Value: -1}})
}

// MarkRead flags a message as read.
func (s *Store) MarkRead(ctx context.Context, id string) (models.UpdateResult, error) {
	return s.docs.Set(ctx, id, models.Document{models.KeyRead: true})
}
