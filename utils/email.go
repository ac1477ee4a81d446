package utils

import (
	"fmt"

	"github.com/keighl/postmark"

	"storefront-api/models"
)

// EmailService sends transactional email through Postmark. A nil service is
// valid and drops all mail, so email stays optional in development.
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService returns an email service, or nil when no API token is
// configured.
func NewEmailService(apiToken, sender string) *EmailService {
	if apiToken == "" {
		return nil
	}
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
	}
}

// SendEmail sends a basic email to the specified recipient.
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es == nil {
		return nil
	}
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOrderPaid sends an order confirmation once payment succeeds.
func (es *EmailService) SendOrderPaid(toEmail string, order *models.Order) error {
	subject := fmt.Sprintf("Order %s Confirmed", order.OrderNumber)
	htmlContent := fmt.Sprintf(
		"<strong>Thank you for your purchase!</strong><br><br>Your payment for order <strong>%s</strong> was received and the order is now being processed.<br><br>Total: <strong>$%.2f</strong><br><br>Thank you for shopping with us!",
		order.OrderNumber,
		order.Total,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendPaymentFailed notifies the customer that their payment did not go through.
func (es *EmailService) SendPaymentFailed(toEmail string, order *models.Order, reason string) error {
	subject := fmt.Sprintf("Payment Failed for Order %s", order.OrderNumber)
	if reason == "" {
		reason = "the payment could not be completed"
	}
	htmlContent := fmt.Sprintf(
		"<strong>We could not process your payment.</strong><br><br>Your payment for order <strong>%s</strong> failed: %s.<br>The order has been cancelled and any reserved items were returned to stock. You can place a new order at any time.",
		order.OrderNumber,
		reason,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
