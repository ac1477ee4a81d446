package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-api/models"
)

// ErrInsufficientStock is returned when a conditional decrement matches no
// document, meaning the product no longer has enough stock.
var ErrInsufficientStock = errors.New("store: insufficient stock")

// Products manages the catalog collection.
type Products struct {
	c *mongo.Collection
}

// FindByAnyID looks a product up by its native object id or, failing that, by
// the secondary "id" field used for catalog entries seeded outside the API.
func (s *Products) FindByAnyID(ctx context.Context, id string) (*models.Product, error) {
	var filter bson.M
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"$or": bson.A{bson.M{"_id": oid}, bson.M{"id": id}}}
	} else {
		filter = bson.M{"id": id}
	}

	var product models.Product
	err := s.c.FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts quantity from the product's stock only if enough
// stock remains, recomputing in_stock in the same atomic update. Two
// concurrent orders for the last unit cannot both pass: the guard is part of
// the update's filter, so the losing caller gets ErrInsufficientStock.
func (s *Products) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	return s.adjustStock(ctx, bson.M{"_id": id, "stock_count": bson.M{"$gte": quantity}}, -quantity)
}

// IncrementStock adds quantity back to the product's stock, recomputing
// in_stock. Used to release a reservation when a later step fails.
func (s *Products) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	return s.adjustStock(ctx, bson.M{"_id": id}, quantity)
}

func (s *Products) adjustStock(ctx context.Context, filter bson.M, delta int) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"stock_count": bson.M{"$add": bson.A{"$stock_count", delta}}}}},
		{{Key: "$set", Value: bson.M{"in_stock": bson.M{"$gt": bson.A{"$stock_count", 0}}, "updated_at": time.Now()}}},
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Insert creates a catalog entry.
func (s *Products) Insert(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.Normalize()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	res, err := s.c.InsertOne(ctx, product)
	if err != nil {
		return nil, err
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return product, nil
}

// Update replaces the mutable fields of a catalog entry.
func (s *Products) Update(ctx context.Context, id primitive.ObjectID, product *models.Product) error {
	product.Normalize()
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"description": product.Description,
		"category":    product.Category,
		"image":       product.Image,
		"price":       product.Price,
		"stock_count": product.StockCount,
		"in_stock":    product.InStock,
		"updated_at":  time.Now(),
	}}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a catalog entry.
func (s *Products) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID returns a single catalog entry.
func (s *Products) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns all catalog entries.
func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	cursor, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
