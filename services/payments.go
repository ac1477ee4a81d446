package services

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"storefront-api/models"
)

// PaymentIntents creates provider payment intents sized to order totals.
type PaymentIntents struct {
	create func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewPaymentIntents configures the Stripe client with the secret key.
func NewPaymentIntents(secretKey string) *PaymentIntents {
	stripe.Key = secretKey
	return &PaymentIntents{create: paymentintent.New}
}

// Create asks the provider for a payment intent covering the order's total
// and returns it; the caller persists the intent id and hands the client
// secret to the browser for confirmation.
func (s *PaymentIntents) Create(ctx context.Context, order *models.Order) (*stripe.PaymentIntent, error) {
	params := IntentParams(order)
	params.Context = ctx
	intent, err := s.create(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

// IntentParams builds the provider request for an order: amount in integer
// minor units, fixed USD currency, order metadata for reconciliation,
// automatic payment-method selection and a shipping block.
func IntentParams(order *models.Order) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(order.Total)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Shipping: &stripe.ShippingDetailsParams{
			Name:  stripe.String(order.ShippingAddress.Name),
			Phone: stripe.String(order.ShippingAddress.Phone),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(order.ShippingAddress.Address1),
				Line2:      stripe.String(order.ShippingAddress.Address2),
				City:       stripe.String(order.ShippingAddress.City),
				State:      stripe.String(order.ShippingAddress.State),
				PostalCode: stripe.String(order.ShippingAddress.ZipCode),
				Country:    stripe.String(CountryCode(order.ShippingAddress.Country)),
			},
		},
	}
	params.AddMetadata("orderId", order.ID.Hex())
	params.AddMetadata("userId", order.UserID.Hex())
	params.AddMetadata("orderNumber", order.OrderNumber)
	return params
}

// MinorUnits converts a dollar amount to integer cents, rounding to absorb
// float representation error ($19.99 must become exactly 1999).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CountryCode maps the country names the storefront collects to ISO codes.
// Only the US name is translated; other values pass through unchanged.
func CountryCode(country string) string {
	if country == "United States" {
		return "US"
	}
	return country
}
