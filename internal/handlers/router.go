package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/session"
)

type Deps struct {
	Catalog       *catalog.Service
	Sessions      *session.Manager
	SessionCookie string
	SessionTTL    time.Duration
	HealthChecks  map[string]HealthCheck
	Logger        *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(d.Logger), middleware.AccessLog(d.Logger))

	r.GET("/healthz", Healthz(d.HealthChecks))

	withSession := middleware.Session(d.Sessions, d.SessionCookie, d.SessionTTL)
	r.GET("/auth/google/success", withSession, GoogleSuccess())

	api := r.Group("/api")
	api.GET("/products", GetProducts(d.Catalog))
	api.GET("/products/:id", GetProduct(d.Catalog))
	api.GET("/categories", GetCategories(d.Catalog))
	api.GET("/home", GetHome(d.Catalog))
	api.GET("/delivery-fee", GetDeliveryFee())
	api.GET("/states", GetStates())

	sessioned := api.Group("", withSession)
	{
		sessioned.POST("/auth/login", Login())
		sessioned.POST("/auth/register", Register())
		sessioned.POST("/auth/logout", Logout())
		sessioned.POST("/auth/verify-email", VerifyEmail())
		sessioned.POST("/auth/resend-verification", ResendVerification())
		sessioned.POST("/auth/forgot-password", ForgotPassword())
		sessioned.POST("/auth/reset-password", ResetPassword())

		sessioned.POST("/checkout/quote", QuoteCheckout())
		sessioned.POST("/checkout/validate", ValidateCheckout())
		sessioned.GET("/checkout/status", CheckoutStatus())
		sessioned.POST("/checkout", SubmitCheckout(d.Catalog))
	}

	user := sessioned.Group("", middleware.RequireAuth())
	{
		user.GET("/auth/me", GetMe())
		user.PUT("/auth/profile", UpdateProfile())

		user.GET("/cart", GetCart())
		user.GET("/cart/events", CartEvents())
		user.POST("/cart/items", AddCartItem())
		user.PUT("/cart/items/:id", UpdateCartItem())
		user.DELETE("/cart/items/:id", RemoveCartItem())
		user.DELETE("/cart", ClearCart())

		user.GET("/orders", GetOrders())
		user.GET("/orders/:id", GetOrder())
		user.GET("/payment/verify/:reference", VerifyPayment())
	}

	admin := user.Group("/admin", middleware.AdminOnly())
	{
		admin.GET("/dashboard", GetDashboard())
		admin.GET("/orders", GetAdminOrders())
		admin.PUT("/orders/:id/status", UpdateOrderStatus())
	}

	return r
}
