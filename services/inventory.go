package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront-api/models"
	"storefront-api/store"
)

// ErrUnknownProduct is returned when an order references a product id that is
// not in the catalog and unknown products are not allowed.
var ErrUnknownProduct = errors.New("unknown product")

// InsufficientStockError identifies the item that could not be reserved.
type InsufficientStockError struct {
	Name string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.Name)
}

// ProductStore is the slice of the catalog the inventory service needs.
type ProductStore interface {
	FindByAnyID(ctx context.Context, id string) (*models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error
}

// Inventory validates availability and reserves stock for orders.
type Inventory struct {
	products ProductStore
	logger   *zap.Logger

	// allowUnknown skips validation for items whose product id is not in the
	// catalog, to support demo/seed data that lives outside the live
	// collection. Off by default.
	allowUnknown bool
}

// NewInventory returns an inventory service over the given product store.
func NewInventory(products ProductStore, allowUnknown bool, logger *zap.Logger) *Inventory {
	return &Inventory{products: products, allowUnknown: allowUnknown, logger: logger}
}

// Reservation tracks which decrements a Reserve call performed so they can be
// released if a later step fails.
type Reservation struct {
	reserved []reservedItem
}

type reservedItem struct {
	id       primitive.ObjectID
	quantity int
}

// Reserve decrements stock for every line item, in order. Each decrement is a
// single conditional update, so concurrent orders for the last unit cannot
// both succeed. If any item fails, decrements already made for earlier items
// are released before returning, leaving the request all-or-nothing.
func (inv *Inventory) Reserve(ctx context.Context, items []models.OrderItem) (*Reservation, error) {
	res := &Reservation{}
	for _, item := range items {
		product, err := inv.products.FindByAnyID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			if inv.allowUnknown {
				inv.logger.Warn("product not in catalog, skipping stock validation",
					zap.String("product_id", item.ProductID),
					zap.String("name", item.Name))
				continue
			}
			inv.Release(ctx, res)
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, item.Name)
		}
		if err != nil {
			inv.Release(ctx, res)
			return nil, err
		}

		if !product.InStock || product.StockCount < item.Quantity {
			inv.Release(ctx, res)
			return nil, &InsufficientStockError{Name: product.Name}
		}

		if err := inv.products.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
			if errors.Is(err, store.ErrInsufficientStock) {
				// Lost a race with a concurrent order between the read and
				// the conditional write.
				err = &InsufficientStockError{Name: product.Name}
			}
			inv.Release(ctx, res)
			return nil, err
		}
		res.reserved = append(res.reserved, reservedItem{id: product.ID, quantity: item.Quantity})
	}
	return res, nil
}

// Release returns every decrement in the reservation to stock. Best effort:
// an item that cannot be restored is logged and the rest are still released.
func (inv *Inventory) Release(ctx context.Context, res *Reservation) {
	if res == nil {
		return
	}
	for _, item := range res.reserved {
		if err := inv.products.IncrementStock(ctx, item.id, item.quantity); err != nil {
			inv.logger.Error("failed to restore stock",
				zap.String("product_id", item.id.Hex()),
				zap.Int("quantity", item.quantity),
				zap.Error(err))
		}
	}
	res.reserved = nil
}

// Restock returns the stock held by an already-persisted order, used when its
// payment fails or is canceled. Items whose product is no longer in the
// catalog are skipped.
func (inv *Inventory) Restock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		product, err := inv.products.FindByAnyID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			inv.logger.Error("failed to look up product for restock",
				zap.String("product_id", item.ProductID), zap.Error(err))
			continue
		}
		if err := inv.products.IncrementStock(ctx, product.ID, item.Quantity); err != nil {
			inv.logger.Error("failed to restock product",
				zap.String("product_id", product.ID.Hex()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}
