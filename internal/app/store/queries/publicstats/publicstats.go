package publicstats

import (
	"context"

	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// countPair is the single $group row each side produces. Counting total and
// subset in one pass keeps subset <= total for any snapshot.
type countPair struct {
	Total  int64 `bson:"total"`
	Subset int64 `bson:"subset"`
}

func countPipeline(match bson.M, field, value string) mongo.Pipeline {
	pipe := mongo.Pipeline{}
	if len(match) > 0 {
		pipe = append(pipe, bson.D{{Key: "$match", Value: match}})
	}
	return append(pipe, bson.D{{Key: "$group", Value: bson.M{
		"_id":   nil,
		"total": bson.M{"$sum": 1},
		"subset": bson.M{"$sum": bson.M{
			"$cond": bson.A{bson.M{"$eq": bson.A{"$" + field, value}}, 1, 0},
		}},
	}}})
}

// DonorsPipeline counts donors and active donors.
func DonorsPipeline() mongo.Pipeline {
	return countPipeline(bson.M{"role": models.RoleDonor}, "status", models.StatusActive)
}

// RequestsPipeline counts requests and completed requests.
func RequestsPipeline() mongo.Pipeline {
	return countPipeline(nil, models.KeyDonationStatus, models.DonationDone)
}

func runCount(ctx context.Context, coll *mongo.Collection, pipe mongo.Pipeline) (countPair, error) {
	cur, err := coll.Aggregate(ctx, pipe)
	if err != nil {
		return countPair{}, err
	}
	defer cur.Close(ctx)

	var rows []countPair
	if err := cur.All(ctx, &rows); err != nil {
		return countPair{}, err
	}
	if len(rows) == 0 {
		// Empty collection: $group emits nothing.
		return countPair{}, nil
	}
	return rows[0], nil
}

// Compute runs the donor and request counts concurrently.
func Compute(ctx context.Context, db *mongo.Database) (models.PublicStats, error) {
	var donors, requests countPair

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donors, err = runCount(gctx, db.Collection("users"), DonorsPipeline())
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = runCount(gctx, db.Collection("donationRequest"), RequestsPipeline())
		return err
	})
	if err := g.Wait(); err != nil {
		return models.PublicStats{}, err
	}

	return models.PublicStats{
		TotalDonors:       donors.Total,
		ActiveDonors:      donors.Subset,
		TotalRequests:     requests.Total,
		CompletedRequests: requests.Subset,
	}, nil
}
