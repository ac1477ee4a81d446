package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-api/models"
)

func testOrder() *models.Order {
	return &models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: "20250901-103000-0001",
		UserID:      primitive.NewObjectID(),
		Total:       19.99,
		ShippingAddress: models.Address{
			Name:     "Jane Doe",
			Address1: "1 Main St",
			City:     "Springfield",
			State:    "IL",
			ZipCode:  "62701",
			Country:  "United States",
		},
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), MinorUnits(19.99))
	assert.Equal(t, int64(1000), MinorUnits(10))
	assert.Equal(t, int64(2909), MinorUnits(29.09))
	assert.Equal(t, int64(0), MinorUnits(0))
	assert.Equal(t, int64(1), MinorUnits(0.005))
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "US", CountryCode("United States"))
	assert.Equal(t, "Canada", CountryCode("Canada"))
	assert.Equal(t, "", CountryCode(""))
}

func TestIntentParams(t *testing.T) {
	order := testOrder()
	params := IntentParams(order)

	assert.Equal(t, int64(1999), *params.Amount)
	assert.Equal(t, "usd", *params.Currency)
	assert.True(t, *params.AutomaticPaymentMethods.Enabled)

	require.NotNil(t, params.Shipping)
	assert.Equal(t, "Jane Doe", *params.Shipping.Name)
	assert.Equal(t, "1 Main St", *params.Shipping.Address.Line1)
	assert.Equal(t, "US", *params.Shipping.Address.Country)

	assert.Equal(t, order.ID.Hex(), params.Metadata["orderId"])
	assert.Equal(t, order.UserID.Hex(), params.Metadata["userId"])
	assert.Equal(t, order.OrderNumber, params.Metadata["orderNumber"])
}

func TestPaymentIntents_Create(t *testing.T) {
	var captured *stripe.PaymentIntentParams
	svc := &PaymentIntents{
		create: func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			captured = params
			return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil
		},
	}

	intent, err := svc.Create(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)

	require.NotNil(t, captured)
	assert.Equal(t, int64(1999), *captured.Amount)
}

func TestPaymentIntents_CreateProviderError(t *testing.T) {
	svc := &PaymentIntents{
		create: func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			return nil, errors.New("amount too small")
		},
	}

	_, err := svc.Create(context.Background(), testOrder())
	assert.ErrorContains(t, err, "amount too small")
}
