package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLog records an admin mutation against a catalog entity.
type AuditLog struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"entityId"`
	Actor     string    `bson:"actor" json:"actor"`
	Data      bson.M    `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Audit manages the audit-log collection.
type Audit struct {
	c *mongo.Collection
}

// Record appends an audit entry.
func (s *Audit) Record(ctx context.Context, action, entityID, actor string, data bson.M) error {
	entry := AuditLog{
		Action:    action,
		EntityID:  entityID,
		Actor:     actor,
		Data:      data,
		CreatedAt: time.Now(),
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// Recent returns the latest entries for an entity, newest first.
func (s *Audit) Recent(ctx context.Context, entityID string, limit int64) ([]AuditLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, bson.M{"entity_id": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
