package session

import (
	"context"

	"storefront/internal/apiclient"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/models"
)

// Backend is the commerce API as seen by one shopper.
type Backend interface {
	cart.API
	checkout.OrderAPI

	Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.AuthResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.AuthResponse, error)
	CurrentUser(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, update apiclient.ProfileUpdate) (models.User, error)
	VerifyEmail(ctx context.Context, token string) (apiclient.Message, error)
	ResendVerification(ctx context.Context, email string) (apiclient.Message, error)
	ForgotPassword(ctx context.Context, email string) (apiclient.Message, error)
	ResetPassword(ctx context.Context, token, newPassword string) (apiclient.Message, error)

	ListOrders(ctx context.Context, page, limit int) (models.OrderPage, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	VerifyPayment(ctx context.Context, reference string) (apiclient.PaymentVerification, error)

	Dashboard(ctx context.Context) (models.DashboardStats, error)
	AdminOrders(ctx context.Context, page, limit int, status string) (models.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// BackendFunc binds the API to a bearer token. onUnauthorized runs when the
// API rejects that token.
type BackendFunc func(token string, onUnauthorized func()) Backend

// ClientBackend binds a shared apiclient.Client; derived clients keep the
// transport and circuit breaker of the base client.
func ClientBackend(base *apiclient.Client) BackendFunc {
	return func(token string, onUnauthorized func()) Backend {
		return base.WithToken(token).OnUnauthorized(onUnauthorized)
	}
}

// boundAPI resolves the shopper's current token on every call, so the cart
// and checkout follow sign in and sign out without being rebuilt.
type boundAPI struct {
	auth *Auth
}

func (b boundAPI) GetCart(ctx context.Context) ([]models.CartItem, error) {
	return b.auth.API().GetCart(ctx)
}

func (b boundAPI) AddToCart(ctx context.Context, productID string, quantity int) error {
	return b.auth.API().AddToCart(ctx, productID, quantity)
}

func (b boundAPI) UpdateCartItem(ctx context.Context, id string, quantity int) error {
	return b.auth.API().UpdateCartItem(ctx, id, quantity)
}

func (b boundAPI) RemoveFromCart(ctx context.Context, id string) error {
	return b.auth.API().RemoveFromCart(ctx, id)
}

func (b boundAPI) ClearCart(ctx context.Context) error {
	return b.auth.API().ClearCart(ctx)
}

func (b boundAPI) CreateOrder(ctx context.Context, req apiclient.CreateOrderRequest) (apiclient.CreateOrderResponse, error) {
	return b.auth.API().CreateOrder(ctx, req)
}
