package models

import "go.mongodb.org/mongo-driver/mongo"

// Write results in the shape the web client already consumes.

// InsertResult reports a single-document insert.
type InsertResult struct {
	Acknowledged bool        `json:"acknowledged"`
	InsertedID   interface{} `json:"insertedId"`
}

// UpdateResult reports a single-document update.
type UpdateResult struct {
	Acknowledged  bool        `json:"acknowledged"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}

// DeleteResult reports a single-document delete.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Inserted converts a driver insert result.
func Inserted(r *mongo.InsertOneResult) InsertResult {
	if r == nil {
		return InsertResult{Acknowledged: true}
	}
	return InsertResult{Acknowledged: true, InsertedID: r.InsertedID}
}

// Updated converts a driver update result.
func Updated(r *mongo.UpdateResult) UpdateResult {
	if r == nil {
		return UpdateResult{Acknowledged: true}
	}
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  r.MatchedCount,
		ModifiedCount: r.ModifiedCount,
		UpsertedCount: r.UpsertedCount,
		UpsertedID:    r.UpsertedID,
	}
}

// Deleted converts a driver delete result.
func Deleted(r *mongo.DeleteResult) DeleteResult {
	if r == nil {
		return DeleteResult{Acknowledged: true}
	}
	return DeleteResult{Acknowledged: true, DeletedCount: r.DeletedCount}
}

// UserUpdatableFields lists the profile keys update-user may $set. Role and
// status changes go through the admin-only routes; email is the natural key
// and never changes here.
var UserUpdatableFields = map[string]bool{
	"name":                true,
	"image":               true,
	"gender":              true,
	"bloodGroup":          true,
	"district":            true,
	"upazila":             true,
	"phone":               true,
	"availabilityStatus":  true,
	"urgencyLevel":        true,
	"lastDonationDate":    true,
	"healthAssessment":    true,
	"reminderPreferences": true,
	"password":            true,
}
