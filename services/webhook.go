package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront-api/models"
	"storefront-api/store"
)

// ErrBadSignature means the event payload failed signature verification and
// nothing was mutated.
var ErrBadSignature = errors.New("webhook signature verification failed")

// OrderPaymentStore is the slice of order persistence the reconciler needs.
type OrderPaymentStore interface {
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	ApplyPaymentEvent(ctx context.Context, id primitive.ObjectID, upd store.PaymentUpdate, eventAt time.Time) (bool, error)
}

// Restocker releases an order's reserved stock after a terminal payment failure.
type Restocker interface {
	Restock(ctx context.Context, items []models.OrderItem)
}

// Mailer sends customer notifications about payment outcomes.
type Mailer interface {
	SendOrderPaid(email string, order *models.Order) error
	SendPaymentFailed(email string, order *models.Order, reason string) error
}

// UserFinder resolves an order's owner for notifications.
type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Reconciler consumes asynchronous provider events and transitions local
// order payment state to match.
type Reconciler struct {
	secret    string
	orders    OrderPaymentStore
	inventory Restocker
	users     UserFinder
	mailer    Mailer
	logger    *zap.Logger
}

// NewReconciler returns a webhook reconciler. users and mailer may be nil, in
// which case no notification emails are sent.
func NewReconciler(secret string, orders OrderPaymentStore, inventory Restocker, users UserFinder, mailer Mailer, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		secret:    secret,
		orders:    orders,
		inventory: inventory,
		users:     users,
		mailer:    mailer,
		logger:    logger,
	}
}

// Handle verifies and applies one provider event. It returns ErrBadSignature
// for forged or corrupted payloads; any other outcome, including an event for
// an unknown intent or an unrecognized event type, is acknowledged as
// processed. Replayed events re-apply the same terminal state and stale
// events are rejected by the storage-layer timestamp guard, so delivery
// retries in either order are safe.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, sigHeader string) error {
	// The dashboard may pin webhook endpoints to a different API version
	// than this SDK; the signature is what authenticates the event.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, r.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return r.handleIntent(ctx, event, func(pi *stripe.PaymentIntent) store.PaymentUpdate {
			now := time.Now()
			upd := store.PaymentUpdate{
				PaymentStatus: models.PaymentStatusPaid,
				Status:        models.OrderStatusProcessing,
				PaidAt:        &now,
			}
			if pi.PaymentMethod != nil {
				upd.PaymentMethod = pi.PaymentMethod.ID
			}
			return upd
		})
	case "payment_intent.payment_failed":
		return r.handleIntent(ctx, event, func(pi *stripe.PaymentIntent) store.PaymentUpdate {
			upd := store.PaymentUpdate{
				PaymentStatus: models.PaymentStatusFailed,
				Status:        models.OrderStatusCancelled,
			}
			if pi.LastPaymentError != nil {
				upd.FailureReason = pi.LastPaymentError.Msg
			}
			return upd
		})
	case "payment_intent.canceled":
		return r.handleIntent(ctx, event, func(pi *stripe.PaymentIntent) store.PaymentUpdate {
			return store.PaymentUpdate{
				PaymentStatus: models.PaymentStatusCanceled,
				Status:        models.OrderStatusCancelled,
			}
		})
	case "charge.dispute.created":
		return r.handleDispute(ctx, event)
	default:
		r.logger.Info("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (r *Reconciler) handleIntent(ctx context.Context, event stripe.Event, build func(*stripe.PaymentIntent) store.PaymentUpdate) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("parse payment intent: %w", err)
	}
	return r.apply(ctx, event, pi.ID, build(&pi))
}

func (r *Reconciler) handleDispute(ctx context.Context, event stripe.Event) error {
	var dispute stripe.Dispute
	if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
		return fmt.Errorf("parse dispute: %w", err)
	}
	if dispute.PaymentIntent == nil {
		r.logger.Warn("dispute event without payment intent", zap.String("dispute_id", dispute.ID))
		return nil
	}
	return r.apply(ctx, event, dispute.PaymentIntent.ID, store.PaymentUpdate{
		PaymentStatus: models.PaymentStatusDisputed,
		Status:        models.OrderStatusDisputed,
		DisputeID:     dispute.ID,
	})
}

func (r *Reconciler) apply(ctx context.Context, event stripe.Event, intentID string, upd store.PaymentUpdate) error {
	order, err := r.orders.FindByPaymentIntentID(ctx, intentID)
	if errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("webhook for unknown payment intent",
			zap.String("type", string(event.Type)),
			zap.String("payment_intent_id", intentID))
		return nil
	}
	if err != nil {
		return err
	}

	eventAt := time.Unix(event.Created, 0)
	applied, err := r.orders.ApplyPaymentEvent(ctx, order.ID, upd, eventAt)
	if err != nil {
		return err
	}
	if !applied {
		r.logger.Info("skipping stale or already-applied webhook event",
			zap.String("type", string(event.Type)),
			zap.String("order_number", order.OrderNumber))
		return nil
	}

	r.logger.Info("applied payment event",
		zap.String("type", string(event.Type)),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_status", upd.PaymentStatus))

	// A terminal failure releases the stock the order held. Disputes do not:
	// the goods may already be with the customer.
	switch upd.PaymentStatus {
	case models.PaymentStatusFailed, models.PaymentStatusCanceled:
		r.inventory.Restock(ctx, order.Items)
	}

	r.notify(ctx, order, upd)
	return nil
}

func (r *Reconciler) notify(ctx context.Context, order *models.Order, upd store.PaymentUpdate) {
	if r.users == nil || r.mailer == nil {
		return
	}
	user, err := r.users.FindByID(ctx, order.UserID)
	if err != nil {
		r.logger.Warn("could not resolve order owner for notification",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}

	var mailErr error
	switch upd.PaymentStatus {
	case models.PaymentStatusPaid:
		mailErr = r.mailer.SendOrderPaid(user.Email, order)
	case models.PaymentStatusFailed:
		mailErr = r.mailer.SendPaymentFailed(user.Email, order, upd.FailureReason)
	}
	if mailErr != nil {
		r.logger.Warn("failed to send payment notification",
			zap.String("email", user.Email), zap.Error(mailErr))
	}
}
