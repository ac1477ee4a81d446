package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-api/models"
)

// Orders manages the order collection.
type Orders struct {
	c *mongo.Collection
}

// ListFilter narrows an order listing.
type ListFilter struct {
	Page   int
	Limit  int
	Status string
	Search string // matched against the order number
	From   time.Time
	To     time.Time
}

// PaymentUpdate is the set of fields a provider event may write onto an order.
type PaymentUpdate struct {
	PaymentStatus string
	Status        string
	PaymentMethod string
	FailureReason string
	DisputeID     string
	PaidAt        *time.Time
}

// Insert persists a new order and returns it with its generated id.
func (s *Orders) Insert(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	res, err := s.c.InsertOne(ctx, order)
	if err != nil {
		return nil, err
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return order, nil
}

// FindForUser returns the order only if it belongs to the given user;
// anything else is ErrNotFound, including another user's order.
func (s *Orders) FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForUser returns a page of the user's orders, newest first, with the
// total count across all pages.
func (s *Orders) ListForUser(ctx context.Context, userID primitive.ObjectID, f ListFilter) ([]models.Order, int64, error) {
	filter := listQuery(userID, f)

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func listQuery(userID primitive.ObjectID, f ListFilter) bson.M {
	filter := bson.M{"user_id": userID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		filter["order_number"] = bson.M{"$regex": f.Search, "$options": "i"}
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lt"] = f.To
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// UpdateFields sets the given fields on the user's order and returns the
// updated document.
func (s *Orders) UpdateFields(ctx context.Context, id, userID primitive.ObjectID, fields bson.M) (*models.Order, error) {
	fields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": fields},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetPaymentIntentID records the provider's intent id on the order.
func (s *Orders) SetPaymentIntentID(ctx context.Context, id primitive.ObjectID, intentID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_intent_id": intentID, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByPaymentIntentID returns the order whose payment intent matches.
func (s *Orders) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	err := s.c.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyPaymentEvent writes a provider event's outcome onto the order, but
// only when the event is not older than the last one applied AND it actually
// changes the payment status. Both guards are part of the update filter: a
// provider retry delivering an old event after a newer one cannot clobber the
// newer state, and a redelivery of the already-applied event reports
// not-applied so callers do not repeat its side effects. Returns whether the
// update was applied.
func (s *Orders) ApplyPaymentEvent(ctx context.Context, id primitive.ObjectID, upd PaymentUpdate, eventAt time.Time) (bool, error) {
	filter := bson.M{
		"_id":            id,
		"payment_status": bson.M{"$ne": upd.PaymentStatus},
		"$or": bson.A{
			bson.M{"payment_event_at": bson.M{"$exists": false}},
			bson.M{"payment_event_at": bson.M{"$lte": eventAt}},
		},
	}

	set := bson.M{
		"payment_status":   upd.PaymentStatus,
		"status":           upd.Status,
		"payment_event_at": eventAt,
		"updated_at":       time.Now(),
	}
	if upd.PaymentMethod != "" {
		set["payment_method"] = upd.PaymentMethod
	}
	if upd.FailureReason != "" {
		set["payment_failure_reason"] = upd.FailureReason
	}
	if upd.DisputeID != "" {
		set["dispute_id"] = upd.DisputeID
	}
	if upd.PaidAt != nil {
		set["paid_at"] = upd.PaidAt
	}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
