// main.go
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"storefront-api/config"
	"storefront-api/controllers"
	"storefront-api/routes"
	"storefront-api/services"
	"storefront-api/store"
	"storefront-api/utils"
)

func main() {
	// Fail fast on misconfiguration: no secrets, no server.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	utils.JwtKey = []byte(cfg.JWTSecret)

	// Connect to MongoDB
	db, err := store.Connect(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}()

	orders := db.Orders()
	products := db.Products()

	// One-shot rename of the legacy "street" address field on historical orders.
	if migrated, err := orders.MigrateLegacyAddresses(context.Background()); err != nil {
		logger.Fatal("Failed to migrate legacy addresses", zap.Error(err))
	} else if migrated > 0 {
		logger.Info("migrated legacy order addresses", zap.Int64("orders", migrated))
	}

	// Services
	emailService := utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender)
	orderNumbers := services.NewOrderNumbers(db.Counters())
	inventory := services.NewInventory(products, cfg.AllowUnknownProducts, logger)
	paymentIntents := services.NewPaymentIntents(cfg.StripeSecretKey)
	reconciler := services.NewReconciler(cfg.StripeWebhookSecret, orders, inventory, db.Users(), emailService, logger)

	// Controllers
	userController := controllers.NewUserController(db.Users(), logger)
	productController := controllers.NewProductController(products, db.Audit(), logger)
	orderController := controllers.NewOrderController(orders, inventory, orderNumbers, logger)
	paymentController := controllers.NewPaymentController(orders, paymentIntents, reconciler, logger)

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, userController, productController, orderController, paymentController)

	logger.Info("server listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
