package requestdonors

import (
	"context"

	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// donorField is where the joined donor info lands on each row.
const donorField = "donorDetails"

// Pipeline returns the join for requesterEmail. donorInfo.donationId holds
// the string form of the request _id, so the lookup compares on $toString.
func Pipeline(requesterEmail string) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{models.KeyRequesterEmail: requesterEmail}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from": "donorInfo",
			"let":  bson.M{"donationId": bson.M{"$toString": "$_id"}},
			"pipeline": mongo.Pipeline{
				bson.D{{Key: "$match", Value: bson.M{
					"$expr": bson.M{"$eq": bson.A{"$" + models.KeyDonationID, "$$donationId"}},
				}}},
			},
			"as": donorField,
		}}},
		// Requests without a donor stay in the result.
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$" + donorField,
			"preserveNullAndEmptyArrays": true,
		}}},
	}
}

// ForRequester returns the requester's donation requests, each joined with
// the donor info that references it. A request with several commitments
// appears once per commitment.
func ForRequester(ctx context.Context, db *mongo.Database, requesterEmail string) ([]models.RequestWithDonor, error) {
	cur, err := db.Collection("donationRequest").Aggregate(ctx, Pipeline(requesterEmail))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.RequestWithDonor{}
	for cur.Next(ctx) {
		var row models.Document
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, split(row))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func split(row models.Document) models.RequestWithDonor {
	var donor models.Document
	switch d := row[donorField].(type) {
	case bson.M:
		donor = d
	case bson.D:
		donor = d.Map()
	}
	delete(row, donorField)
	return models.RequestWithDonor{Request: row, Donor: donor}
}
