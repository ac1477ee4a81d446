package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string
	PublicURL     string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string

	PostmarkToken string
	EmailSender   string

	// AllowUnknownProducts lets an order reference a product id that is not in
	// the catalog (demo/seed data). When false such orders are rejected.
	AllowUnknownProducts bool
}

// Load reads the environment (optionally seeded from a .env file) and fails
// if any required secret is missing, so a misconfigured process never serves
// requests.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 envOr("PORT", "8000"),
		PublicURL:            envOr("PUBLIC_URL", "http://localhost:8000"),
		MongoURI:             os.Getenv("MONGODB_URI"),
		MongoDatabase:        envOr("MONGODB_DATABASE", "storefront"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PostmarkToken:        os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:          os.Getenv("EMAIL_SENDER"),
		AllowUnknownProducts: os.Getenv("ALLOW_UNKNOWN_PRODUCTS") == "true",
	}

	var missing []string
	for _, req := range []struct{ name, value string }{
		{"MONGODB_URI", cfg.MongoURI},
		{"JWT_SECRET", cfg.JWTSecret},
		{"STRIPE_SECRET_KEY", cfg.StripeSecretKey},
		{"STRIPE_PUBLISHABLE_KEY", cfg.StripePublishableKey},
		{"STRIPE_WEBHOOK_SECRET", cfg.StripeWebhookSecret},
	} {
		if req.value == "" {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
