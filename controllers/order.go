package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront-api/middleware"
	"storefront-api/models"
	"storefront-api/services"
	"storefront-api/store"
	"storefront-api/utils"
)

// OrderStore is the order persistence the controller depends on.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, f store.ListFilter) ([]models.Order, int64, error)
	UpdateFields(ctx context.Context, id, userID primitive.ObjectID, fields bson.M) (*models.Order, error)
}

// StockReserver reserves and releases inventory for order requests.
type StockReserver interface {
	Reserve(ctx context.Context, items []models.OrderItem) (*services.Reservation, error)
	Release(ctx context.Context, res *services.Reservation)
}

// NumberGenerator produces fresh order numbers.
type NumberGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// OrderController handles order-related requests.
type OrderController struct {
	Orders    OrderStore
	Inventory StockReserver
	Numbers   NumberGenerator
	Logger    *zap.Logger
}

// NewOrderController creates a new OrderController.
func NewOrderController(orders OrderStore, inventory StockReserver, numbers NumberGenerator, logger *zap.Logger) *OrderController {
	return &OrderController{
		Orders:    orders,
		Inventory: inventory,
		Numbers:   numbers,
		Logger:    logger,
	}
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	Items           []models.OrderItem `json:"items"`
	Subtotal        float64            `json:"subtotal"`
	Tax             float64            `json:"tax"`
	Shipping        float64            `json:"shipping"`
	Total           float64            `json:"total"`
	ShippingAddress models.Address     `json:"shippingAddress"`
	BillingAddress  models.Address     `json:"billingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

// CreateOrder reserves stock, assigns an order number and persists the order.
// If any step after the reservation fails, the reservation is released so a
// failed request never leaves inventory reduced without an order.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Order must contain at least one item")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reservation, err := oc.Inventory.Reserve(ctx, req.Items)
	if err != nil {
		var stockErr *services.InsufficientStockError
		switch {
		case errors.As(err, &stockErr), errors.Is(err, services.ErrUnknownProduct):
			utils.WriteError(w, http.StatusBadRequest, capitalize(err.Error()))
		default:
			oc.Logger.Error("failed to reserve stock", zap.Error(err))
			utils.WriteError(w, http.StatusInternalServerError, "Failed to reserve stock")
		}
		return
	}

	orderNumber, err := oc.Numbers.Generate(ctx)
	if err != nil {
		oc.Inventory.Release(ctx, reservation)
		oc.Logger.Error("failed to generate order number", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to generate order number")
		return
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		Items:           req.Items,
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		Shipping:        req.Shipping,
		Total:           req.Total,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}

	if fields := order.Validate(); len(fields) > 0 {
		oc.Inventory.Release(ctx, reservation)
		utils.WriteFieldErrors(w, "Order validation failed", fields)
		return
	}

	order, err = oc.Orders.Insert(ctx, order)
	if err != nil {
		oc.Inventory.Release(ctx, reservation)
		oc.Logger.Error("failed to save order", zap.String("order_number", orderNumber), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	oc.Logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.Hex()),
		zap.Int("items", len(order.Items)))

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Order created successfully",
		"order":   order,
	})
}

// GetOrders returns the authenticated user's orders, paginated and optionally
// filtered by status, order-number search and a created-at date range.
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter := listFilterFromQuery(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, total, err := oc.Orders.ListForUser(ctx, userID, filter)
	if err != nil {
		oc.Logger.Error("failed to list orders", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

func listFilterFromQuery(r *http.Request) store.ListFilter {
	q := r.URL.Query()
	filter := store.ListFilter{
		Page:   1,
		Limit:  10,
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	// dateRange is "YYYY-MM-DD,YYYY-MM-DD"; either side may be empty.
	if dateRange := q.Get("dateRange"); dateRange != "" {
		parts := strings.SplitN(dateRange, ",", 2)
		if from, err := time.Parse("2006-01-02", parts[0]); err == nil {
			filter.From = from
		}
		if len(parts) == 2 {
			if to, err := time.Parse("2006-01-02", parts[1]); err == nil {
				// End date is inclusive: the bound is the next midnight,
				// matched exclusively.
				filter.To = to.AddDate(0, 0, 1)
			}
		}
	}
	return filter
}

// GetOrder returns a single order scoped to its owner.
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.Orders.FindForUser(ctx, orderID, userID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		oc.Logger.Error("failed to load order", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}

	utils.WriteJSON(w, http.StatusOK, order)
}

// UpdateOrder applies a restricted set of fields to the owner's order:
// status, trackingNumber and notes. Anything else in the body is ignored.
func (oc *OrderController) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orderID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status         *string `json:"status"`
		TrackingNumber *string `json:"trackingNumber"`
		Notes          *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := bson.M{}
	if req.Status != nil {
		if !models.ValidOrderStatus(*req.Status) {
			utils.WriteError(w, http.StatusBadRequest, "Invalid order status")
			return
		}
		fields["status"] = *req.Status
	}
	if req.TrackingNumber != nil {
		fields["tracking_number"] = *req.TrackingNumber
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if len(fields) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "No updatable fields provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.Orders.UpdateFields(ctx, orderID, userID, fields)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		oc.Logger.Error("failed to update order", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order updated successfully",
		"order":   order,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
