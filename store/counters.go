package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-api/models"
)

// Counters manages the per-day order sequence documents.
type Counters struct {
	c *mongo.Collection
}

// NextSequence atomically increments and returns the counter for the given
// date (YYYY-MM-DD), creating it at 1 if absent. The single find-and-modify
// serializes concurrent callers, so no two orders on the same day ever see
// the same value.
func (s *Counters) NextSequence(ctx context.Context, date string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter models.OrderCounter
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"date": date},
		bson.M{"$inc": bson.M{"counter": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Counter, nil
}
