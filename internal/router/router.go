package router

import (
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Services struct {
	Identity service.IdentityService
	Catalog  service.CatalogService
	Cart     service.CartService
	Checkout service.CheckoutService
	Payments service.PaymentService
	Orders   service.OrderService
	Reviews  service.ReviewService
}

func Router(svc Services, jwtSecret string, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.CartSession())
	r.Use(middleware.AuthOptional(jwtSecret, svc.Identity, log))

	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, log)
	cartHandler := handlers.NewCartHandler(svc.Cart, log)
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout, log)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments, log)
	orderHandler := handlers.NewOrderHandler(svc.Orders, log)
	reviewHandler := handlers.NewReviewHandler(svc.Reviews, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	store := r.Group("/store")
	{
		store.GET("", catalogHandler.List)
		store.GET("/category/:category_slug", catalogHandler.ByCategory)
		store.GET("/:category_slug/:product_slug", catalogHandler.Detail)
	}
	r.GET("/categories", catalogHandler.Categories)

	cart := r.Group("/cart")
	{
		cart.GET("", cartHandler.View)
		cart.POST("/items", cartHandler.AddItem)
		cart.POST("/items/:id/decrement", cartHandler.DecrementItem)
		cart.DELETE("/items/:id", cartHandler.RemoveItem)
		cart.POST("/merge", middleware.AuthRequired(), cartHandler.Merge)
	}

	checkout := r.Group("/checkout", middleware.AuthRequired())
	{
		checkout.POST("", checkoutHandler.Start)
		checkout.GET("", checkoutHandler.Current)
		checkout.POST("/resend", checkoutHandler.Resend)
		checkout.POST("/verify", checkoutHandler.Verify)
	}

	r.GET("/payments/methods", paymentHandler.Methods)

	orders := r.Group("/orders", middleware.AuthRequired())
	{
		orders.GET("", orderHandler.History)
		orders.GET("/:number", orderHandler.Detail)
		orders.GET("/:number/confirmation", orderHandler.Confirmation)
		orders.POST("/:number/pay", paymentHandler.Pay)
		orders.POST("/:number/confirm", paymentHandler.Confirm)
	}

	reviews := r.Group("/products/:product_id/reviews")
	{
		reviews.POST("", middleware.AuthRequired(), reviewHandler.Submit)
	}
	r.POST("/reviews/:id/vote", middleware.AuthRequired(), reviewHandler.Vote)

	admin := r.Group("/admin", middleware.StaffRequired())
	{
		admin.PUT("/orders/:number/status", orderHandler.ChangeStatus)
		admin.GET("/reviews/pending", reviewHandler.Queue)
		admin.POST("/reviews/approve", reviewHandler.Approve)
		admin.POST("/reviews/hide", reviewHandler.Hide)
	}

	return r
}
