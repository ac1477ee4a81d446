package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
	OrderStatusDisputed   = "disputed"
)

// Payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
	PaymentStatusCanceled = "canceled"
	PaymentStatusDisputed = "disputed"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded, OrderStatusDisputed:
		return true
	}
	return false
}

// Address is an embedded delivery or billing address snapshot.
type Address struct {
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Address1 string `bson:"address1" json:"address1"`
	Address2 string `bson:"address2,omitempty" json:"address2,omitempty"`
	City     string `bson:"city" json:"city"`
	State    string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode  string `bson:"zipcode" json:"zipCode"`
	Country  string `bson:"country,omitempty" json:"country,omitempty"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// OrderItem is a point-in-time copy of a product at purchase. Later edits to
// the catalog entry never change what the customer bought.
type OrderItem struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
}

// Order represents a customer purchase.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber string             `bson:"order_number" json:"orderNumber"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	Items       []OrderItem        `bson:"items" json:"items"`

	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Tax      float64 `bson:"tax" json:"tax"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Total    float64 `bson:"total" json:"total"`

	Status        string `bson:"status" json:"status"`
	PaymentStatus string `bson:"payment_status" json:"paymentStatus"`
	PaymentMethod string `bson:"payment_method,omitempty" json:"paymentMethod,omitempty"`

	ShippingAddress Address `bson:"shipping_address" json:"shippingAddress"`
	BillingAddress  Address `bson:"billing_address" json:"billingAddress"`

	// PaymentIntentID links this order to the provider's intent object. The
	// provider owns the authoritative payment state; the fields below hold the
	// last state a webhook delivered.
	PaymentIntentID      string     `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	PaymentFailureReason string     `bson:"payment_failure_reason,omitempty" json:"paymentFailureReason,omitempty"`
	DisputeID            string     `bson:"dispute_id,omitempty" json:"disputeId,omitempty"`
	PaidAt               *time.Time `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	PaymentEventAt       *time.Time `bson:"payment_event_at,omitempty" json:"-"`

	TrackingNumber string `bson:"tracking_number,omitempty" json:"trackingNumber,omitempty"`
	Notes          string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Validate checks the constructed order before it is saved and returns a map
// of field name to problem for every failing field. An empty map means the
// order is valid.
func (o *Order) Validate() map[string]string {
	fields := make(map[string]string)
	if o.UserID.IsZero() {
		fields["userId"] = "user id is required"
	}
	if o.OrderNumber == "" {
		fields["orderNumber"] = "order number is required"
	}
	if len(o.Items) == 0 {
		fields["items"] = "order must contain at least one item"
	}
	for i, item := range o.Items {
		if item.ProductID == "" {
			fields[itemField(i, "productId")] = "product id is required"
		}
		if item.Name == "" {
			fields[itemField(i, "name")] = "name is required"
		}
		if item.Quantity <= 0 {
			fields[itemField(i, "quantity")] = "quantity must be positive"
		}
		if item.Price < 0 {
			fields[itemField(i, "price")] = "price must not be negative"
		}
	}
	if o.Subtotal < 0 {
		fields["subtotal"] = "subtotal must not be negative"
	}
	if o.Total < 0 {
		fields["total"] = "total must not be negative"
	}
	if o.ShippingAddress.Address1 == "" {
		fields["shippingAddress.address1"] = "address line is required"
	}
	if o.ShippingAddress.City == "" {
		fields["shippingAddress.city"] = "city is required"
	}
	if o.ShippingAddress.ZipCode == "" {
		fields["shippingAddress.zipCode"] = "zip code is required"
	}
	return fields
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items.%d.%s", i, name)
}

// OrderCounter holds the daily sequence behind order numbers, one document
// per calendar day. The counter only moves forward, via an atomic
// find-and-increment at the storage layer.
type OrderCounter struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Date    string             `bson:"date" json:"date"` // YYYY-MM-DD
	Counter int64              `bson:"counter" json:"counter"`
}
