package routes

import (
	"github.com/gorilla/mux"

	"storefront-api/controllers"
	"storefront-api/middleware"
)

// RegisterRoutes sets up all the routes for the application. The webhook
// route is intentionally outside the auth middleware: it is authenticated by
// the provider's signature, not a bearer token.
func RegisterRoutes(router *mux.Router, userController *controllers.UserController, productController *controllers.ProductController, orderController *controllers.OrderController, paymentController *controllers.PaymentController) {
	api := router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", userController.Register).Methods("POST")
	api.HandleFunc("/auth/login", userController.Login).Methods("POST")
	api.HandleFunc("/products", productController.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")
	api.HandleFunc("/payments/webhook", paymentController.Webhook).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/profile", userController.GetProfile).Methods("GET")
	protected.HandleFunc("/orders", orderController.CreateOrder).Methods("POST")
	protected.HandleFunc("/orders", orderController.GetOrders).Methods("GET")
	protected.HandleFunc("/orders/{id}", orderController.GetOrder).Methods("GET")
	protected.HandleFunc("/orders/{id}", orderController.UpdateOrder).Methods("PUT")
	protected.HandleFunc("/payments/create-payment-intent", paymentController.CreatePaymentIntent).Methods("POST")

	// Admin routes
	admin := api.PathPrefix("/products").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("", productController.CreateProduct).Methods("POST")
	admin.HandleFunc("/{id}", productController.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/{id}", productController.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/{id}/audit", productController.GetProductAudit).Methods("GET")
}
