package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront-api/middleware"
	"storefront-api/models"
	"storefront-api/services"
	"storefront-api/store"
	"storefront-api/utils"
)

// Stripe caps event payloads well below this; anything larger is not a
// legitimate webhook.
const maxWebhookBody = 64 * 1024

// PaymentOrderStore is the order persistence the payment controller needs.
type PaymentOrderStore interface {
	FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)
	SetPaymentIntentID(ctx context.Context, id primitive.ObjectID, intentID string) error
}

// IntentIssuer creates provider payment intents for orders.
type IntentIssuer interface {
	Create(ctx context.Context, order *models.Order) (*stripe.PaymentIntent, error)
}

// EventHandler verifies and applies one provider webhook event.
type EventHandler interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) error
}

// PaymentController handles payment-intent creation and webhook delivery.
type PaymentController struct {
	Orders     PaymentOrderStore
	Intents    IntentIssuer
	Reconciler EventHandler
	Logger     *zap.Logger
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(orders PaymentOrderStore, intents IntentIssuer, reconciler EventHandler, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		Orders:     orders,
		Intents:    intents,
		Reconciler: reconciler,
		Logger:     logger,
	}
}

// CreatePaymentIntent asks the provider for an intent covering the order's
// total and returns the client secret for browser-side confirmation. The
// order lookup is owner-scoped: an order belonging to another user is
// reported as not found, never as forbidden.
func (pc *PaymentController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "orderId is required")
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	order, err := pc.Orders.FindForUser(ctx, orderID, userID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		pc.Logger.Error("failed to load order", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}

	intent, err := pc.Intents.Create(ctx, order)
	if err != nil {
		pc.Logger.Error("payment provider rejected intent request",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Payment provider error: "+err.Error())
		return
	}

	if err := pc.Orders.SetPaymentIntentID(ctx, order.ID, intent.ID); err != nil {
		pc.Logger.Error("failed to record payment intent id",
			zap.String("order_number", order.OrderNumber),
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to record payment intent")
		return
	}

	pc.Logger.Info("payment intent created",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_intent_id", intent.ID))

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"clientSecret": intent.ClientSecret,
	})
}

// Webhook consumes provider-signed events. Signature failures get a 400 and
// mutate nothing; every successfully processed or intentionally ignored event
// is acknowledged with {received: true} so the provider stops retrying.
func (pc *PaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	err = pc.Reconciler.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, services.ErrBadSignature) {
		pc.Logger.Warn("webhook signature verification failed", zap.Error(err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid signature")
		return
	}
	if err != nil {
		pc.Logger.Error("failed to process webhook event", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to process event")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
