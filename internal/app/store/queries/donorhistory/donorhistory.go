package donorhistory

import (
	"context"

	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Pipeline groups donorInfo by donor. createdAt is an ISO-8601 string, so
// $max yields the latest commitment.
func Pipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":              "$" + models.KeyDonorEmail,
			"totalDonations":   bson.M{"$sum": 1},
			"lastDonationDate": bson.M{"$max": "$" + models.KeyCreatedAt},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// Summary returns one row per donor email. Computed fresh on every call.
func Summary(ctx context.Context, db *mongo.Database) ([]models.DonorHistory, error) {
	cur, err := db.Collection("donorInfo").Aggregate(ctx, Pipeline())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.DonorHistory{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
