package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. StockCount and InStock are kept consistent by
// every write path: InStock is always recomputed as StockCount > 0.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AltID       string             `bson:"id,omitempty" json:"altId,omitempty"` // secondary id for catalog entries seeded outside the API
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	StockCount  int                `bson:"stock_count" json:"stockCount"`
	InStock     bool               `bson:"in_stock" json:"inStock"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Normalize re-derives InStock from StockCount.
func (p *Product) Normalize() {
	p.InStock = p.StockCount > 0
}
