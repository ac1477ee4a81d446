package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"storefront-api/models"
	"storefront-api/store"
)

// fakeProductStore enforces the same conditional-decrement contract as the
// real store: the stock guard and the subtraction happen under one lock.
type fakeProductStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	f := &fakeProductStore{products: make(map[primitive.ObjectID]*models.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductStore) FindByAnyID(ctx context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		if p, ok := f.products[oid]; ok {
			copied := *p
			return &copied, nil
		}
	}
	for _, p := range f.products {
		if p.AltID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeProductStore) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.StockCount < quantity {
		return store.ErrInsufficientStock
	}
	p.StockCount -= quantity
	p.InStock = p.StockCount > 0
	return nil
}

func (f *fakeProductStore) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.StockCount += quantity
	p.InStock = p.StockCount > 0
	return nil
}

func (f *fakeProductStore) stock(id primitive.ObjectID) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	return p.StockCount, p.InStock
}

func product(name string, stock int) *models.Product {
	return &models.Product{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Price:      9.99,
		StockCount: stock,
		InStock:    stock > 0,
	}
}

func item(p *models.Product, quantity int) models.OrderItem {
	return models.OrderItem{
		ProductID: p.ID.Hex(),
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
	}
}

func TestInventory_ReserveDecrementsStock(t *testing.T) {
	p := product("Widget", 5)
	products := newFakeProductStore(p)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	res, err := inv.Reserve(context.Background(), []models.OrderItem{item(p, 2)})
	require.NoError(t, err)
	require.NotNil(t, res)

	stock, inStock := products.stock(p.ID)
	assert.Equal(t, 3, stock)
	assert.True(t, inStock)
}

func TestInventory_ReserveLastUnitMarksOutOfStock(t *testing.T) {
	p := product("Widget", 2)
	products := newFakeProductStore(p)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	_, err := inv.Reserve(context.Background(), []models.OrderItem{item(p, 2)})
	require.NoError(t, err)

	stock, inStock := products.stock(p.ID)
	assert.Equal(t, 0, stock)
	assert.False(t, inStock)
}

func TestInventory_InsufficientStockFailsWholeOrder(t *testing.T) {
	first := product("Widget", 5)
	second := product("Gadget", 1)
	products := newFakeProductStore(first, second)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	_, err := inv.Reserve(context.Background(), []models.OrderItem{
		item(first, 2),
		item(second, 3),
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Gadget", stockErr.Name)

	// The first item's decrement is rolled back, so the failed request leaves
	// no trace in inventory.
	stock, _ := products.stock(first.ID)
	assert.Equal(t, 5, stock)
	stock, _ = products.stock(second.ID)
	assert.Equal(t, 1, stock)
}

func TestInventory_UnknownProductRejectedByDefault(t *testing.T) {
	known := product("Widget", 5)
	products := newFakeProductStore(known)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	_, err := inv.Reserve(context.Background(), []models.OrderItem{
		item(known, 1),
		{ProductID: primitive.NewObjectID().Hex(), Name: "Phantom", Quantity: 1},
	})
	require.ErrorIs(t, err, ErrUnknownProduct)

	stock, _ := products.stock(known.ID)
	assert.Equal(t, 5, stock)
}

func TestInventory_UnknownProductSkippedWhenAllowed(t *testing.T) {
	known := product("Widget", 5)
	products := newFakeProductStore(known)
	inv := NewInventory(products, true, zaptest.NewLogger(t))

	res, err := inv.Reserve(context.Background(), []models.OrderItem{
		{ProductID: primitive.NewObjectID().Hex(), Name: "Phantom", Quantity: 1},
		item(known, 1),
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	stock, _ := products.stock(known.ID)
	assert.Equal(t, 4, stock)
}

func TestInventory_FindBySecondaryID(t *testing.T) {
	p := product("Seeded", 3)
	p.AltID = "seed-001"
	products := newFakeProductStore(p)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	_, err := inv.Reserve(context.Background(), []models.OrderItem{
		{ProductID: "seed-001", Name: "Seeded", Quantity: 1},
	})
	require.NoError(t, err)

	stock, _ := products.stock(p.ID)
	assert.Equal(t, 2, stock)
}

func TestInventory_ReleaseRestoresStock(t *testing.T) {
	p := product("Widget", 5)
	products := newFakeProductStore(p)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	res, err := inv.Reserve(context.Background(), []models.OrderItem{item(p, 4)})
	require.NoError(t, err)

	inv.Release(context.Background(), res)

	stock, inStock := products.stock(p.ID)
	assert.Equal(t, 5, stock)
	assert.True(t, inStock)
}

func TestInventory_ConcurrentReserveNeverOversells(t *testing.T) {
	p := product("Last Unit", 1)
	products := newFakeProductStore(p)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	const attempts = 10
	successes := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.Reserve(context.Background(), []models.OrderItem{item(p, 1)})
			successes <- err == nil
		}()
	}
	wg.Wait()
	close(successes)

	won := 0
	for ok := range successes {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one order may take the last unit")

	stock, inStock := products.stock(p.ID)
	assert.Equal(t, 0, stock, "stock must never go negative")
	assert.False(t, inStock)
}

func TestInventory_RestockReturnsOrderItems(t *testing.T) {
	p := product("Widget", 3)
	products := newFakeProductStore(p)
	inv := NewInventory(products, false, zaptest.NewLogger(t))

	inv.Restock(context.Background(), []models.OrderItem{
		item(p, 2),
		{ProductID: primitive.NewObjectID().Hex(), Name: "Gone", Quantity: 1}, // skipped
	})

	stock, _ := products.stock(p.ID)
	assert.Equal(t, 5, stock)
}
