package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront-api/middleware"
	"storefront-api/models"
	"storefront-api/store"
	"storefront-api/utils"
)

// ProductCatalog is the catalog persistence the controller depends on.
type ProductCatalog interface {
	Insert(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

// AuditStore records admin mutations and serves their history.
type AuditStore interface {
	Record(ctx context.Context, action, entityID, actor string, data bson.M) error
	Recent(ctx context.Context, entityID string, limit int64) ([]store.AuditLog, error)
}

// ProductController handles product-related requests.
type ProductController struct {
	Products ProductCatalog
	Audit    AuditStore
	Logger   *zap.Logger
}

// NewProductController creates a new ProductController.
func NewProductController(products ProductCatalog, audit AuditStore, logger *zap.Logger) *ProductController {
	return &ProductController{Products: products, Audit: audit, Logger: logger}
}

// CreateProduct handles adding a new product (admin only).
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if product.Name == "" || product.Price < 0 || product.StockCount < 0 {
		utils.WriteError(w, http.StatusBadRequest, "Product requires a name, a non-negative price and a non-negative stock count")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := pc.Products.Insert(ctx, &product)
	if err != nil {
		pc.Logger.Error("failed to create product", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Error creating product")
		return
	}

	pc.audit(ctx, r, "product.create", created.ID.Hex(), bson.M{"name": created.Name})
	utils.WriteJSON(w, http.StatusCreated, created)
}

// GetProducts retrieves all products.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	products, err := pc.Products.List(ctx)
	if err != nil {
		pc.Logger.Error("failed to list products", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product by ID.
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := pc.Products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		pc.Logger.Error("failed to load product", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Error fetching product")
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// UpdateProduct handles updating a product (admin only).
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if product.StockCount < 0 {
		utils.WriteError(w, http.StatusBadRequest, "Stock count must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = pc.Products.Update(ctx, id, &product)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		pc.Logger.Error("failed to update product", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Error updating product")
		return
	}

	pc.audit(ctx, r, "product.update", id.Hex(), bson.M{"name": product.Name, "stock_count": product.StockCount})
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product updated successfully"})
}

// DeleteProduct handles deleting a product (admin only).
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = pc.Products.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		pc.Logger.Error("failed to delete product", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Error deleting product")
		return
	}

	pc.audit(ctx, r, "product.delete", id.Hex(), nil)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// GetProductAudit returns the recent admin mutations of a product (admin only).
func (pc *ProductController) GetProductAudit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	logs, err := pc.Audit.Recent(ctx, id.Hex(), 50)
	if err != nil {
		pc.Logger.Error("failed to load audit log", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Error fetching audit log")
		return
	}
	if logs == nil {
		logs = []store.AuditLog{}
	}
	utils.WriteJSON(w, http.StatusOK, logs)
}

func (pc *ProductController) audit(ctx context.Context, r *http.Request, action, entityID string, data bson.M) {
	actor := ""
	if claims, ok := middleware.ClaimsFrom(r); ok {
		actor = claims.Email
	}
	if err := pc.Audit.Record(ctx, action, entityID, actor, data); err != nil {
		pc.Logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}
