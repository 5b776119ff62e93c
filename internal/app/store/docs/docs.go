// Package docstore is the shared access layer for the free-form collections
// (donation requests, donor info, blogs, contacts). Documents are stored as
// the client sent them; only _id handling and a few timestamps are applied.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/docid"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection wraps one free-form collection.
type Collection struct {
	c *mongo.Collection
}

// New returns a Collection for name in db.
func New(db *mongo.Database, name string) *Collection {
	return &Collection{c: db.Collection(name)}
}

// Name returns the underlying collection name.
func (s *Collection) Name() string { return s.c.Name() }

// stripID drops an empty or null _id so the driver generates one.
func stripID(doc models.Document) {
	if v, ok := doc["_id"]; ok {
		if v == nil || v == "" {
			delete(doc, "_id")
		}
	}
}

// Insert stores doc. When stampCreated is set and doc has no createdAt, the
// current time is recorded.
func (s *Collection) Insert(ctx context.Context, doc models.Document, stampCreated bool) (models.InsertResult, error) {
	if doc == nil {
		doc = models.Document{}
	}
	stripID(doc)
	if stampCreated {
		if _, ok := doc[models.KeyCreatedAt]; !ok {
			doc[models.KeyCreatedAt] = models.Timestamp(time.Now())
		}
	}
	res, err := s.c.InsertOne(ctx, doc)
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.Inserted(res), nil
}

// Find returns the documents matching filter. A nil sort keeps natural order.
func (s *Collection) Find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Document, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the document for the path id, or nil when none matches.
func (s *Collection) Get(ctx context.Context, id string) (models.Document, error) {
	var doc models.Document
	if err := s.c.FindOne(ctx, docid.Filter(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// Set applies $set to the document for the path id. _id is never rewritten.
func (s *Collection) Set(ctx context.Context, id string, set models.Document) (models.UpdateResult, error) {
	return s.SetWhere(ctx, docid.Filter(id), set)
}

// SetWhere applies $set to the first document matching filter.
func (s *Collection) SetWhere(ctx context.Context, filter bson.M, set models.Document) (models.UpdateResult, error) {
	delete(set, "_id")
	if len(set) == 0 {
		n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		if err != nil {
			return models.UpdateResult{}, err
		}
		return models.UpdateResult{Acknowledged: true, MatchedCount: n}, nil
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return models.UpdateResult{}, err
	}
	return models.Updated(res), nil
}

// Delete removes the document for the path id.
func (s *Collection) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	return s.DeleteWhere(ctx, docid.Filter(id))
}

// DeleteWhere removes the first document matching filter.
func (s *Collection) DeleteWhere(ctx context.Context, filter bson.M) (models.DeleteResult, error) {
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.Deleted(res), nil
}

// Count returns the number of documents matching filter.
func (s *Collection) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.c.CountDocuments(ctx, filter)
}
