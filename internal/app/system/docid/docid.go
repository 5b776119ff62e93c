// Package docid turns path identifiers into _id filters.
//
// Records in the donation, donor and blog collections may carry either an
// ObjectID or a caller-chosen string as _id. A 24-character hex string is
// treated as an ObjectID; anything else is matched as a plain string.
package docid

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsObjectID reports whether id has the shape of an ObjectID.
func IsObjectID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// Value returns the _id value for id: an ObjectID when it parses, the string
// otherwise.
func Value(id string) interface{} {
	if IsObjectID(id) {
		oid, _ := primitive.ObjectIDFromHex(id)
		return oid
	}
	return id
}

// Filter returns {_id: Value(id)}.
func Filter(id string) bson.M {
	return bson.M{"_id": Value(id)}
}
