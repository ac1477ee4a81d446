// Package store wraps the MongoDB collections behind typed accessors. Every
// cross-request correctness guarantee in the system (the order counter, the
// conditional stock decrement, the webhook staleness guard) lives here as a
// single atomic per-document operation.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a document does not exist or is not visible to
// the caller. Owner-scoped lookups deliberately return it for other users'
// documents so existence is never disclosed across tenants.
var ErrNotFound = errors.New("store: not found")

// Store owns the database connection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects from the database.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Orders returns the order collection wrapper.
func (s *Store) Orders() *Orders { return &Orders{c: s.db.Collection("orders")} }

// Products returns the product collection wrapper.
func (s *Store) Products() *Products { return &Products{c: s.db.Collection("products")} }

// Counters returns the order-counter collection wrapper.
func (s *Store) Counters() *Counters { return &Counters{c: s.db.Collection("order_counters")} }

// Users returns the user collection wrapper.
func (s *Store) Users() *Users { return &Users{c: s.db.Collection("users")} }

// Audit returns the audit-log collection wrapper.
func (s *Store) Audit() *Audit { return &Audit{c: s.db.Collection("audit_logs")} }
