package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/apiclient"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/session"
)

// fakeCommerce is an in-memory commerce API. Tokens are "tok-" + email.
type fakeCommerce struct {
	mu        sync.Mutex
	users     map[string]models.User
	carts     map[string][]models.CartItem
	products  map[string]models.Product
	orders    []apiclient.CreateOrderRequest
	statuses  map[string]models.OrderStatus
	createErr error
}

func newFakeCommerce() *fakeCommerce {
	return &fakeCommerce{
		users: map[string]models.User{
			"tok-ada@example.com":   {ID: "u1", Email: "ada@example.com", FullName: "Ada"},
			"tok-admin@example.com": {ID: "a1", Email: "admin@example.com", IsAdmin: true},
		},
		carts: make(map[string][]models.CartItem),
		products: map[string]models.Product{
			"moringa": {ID: "moringa", Name: "Moringa Capsules", Price: 4000, Stock: 3},
			"tea":     {ID: "tea", Name: "Detox Tea", Price: 2500, Stock: 10},
		},
		statuses: make(map[string]models.OrderStatus),
	}
}

func (f *fakeCommerce) backend() session.BackendFunc {
	return func(token string, onUnauthorized func()) session.Backend {
		return &fakeBackend{srv: f, token: token, onUnauthorized: onUnauthorized}
	}
}

type fakeBackend struct {
	session.Backend
	srv            *fakeCommerce
	token          string
	onUnauthorized func()
}

func (b *fakeBackend) user() (models.User, error) {
	u, ok := b.srv.users[b.token]
	if !ok {
		if b.onUnauthorized != nil {
			b.onUnauthorized()
		}
		return models.User{}, &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Invalid token"}
	}
	return u, nil
}

func (b *fakeBackend) Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.AuthResponse, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	token := "tok-" + req.Email
	u, ok := b.srv.users[token]
	if !ok || req.Password != "secret" {
		return apiclient.AuthResponse{}, &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	return apiclient.AuthResponse{Token: token, User: u}, nil
}

func (b *fakeBackend) CurrentUser(ctx context.Context) (models.User, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	return b.user()
}

func (b *fakeBackend) GetCart(ctx context.Context) ([]models.CartItem, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	if _, err := b.user(); err != nil {
		return nil, err
	}
	return append([]models.CartItem(nil), b.srv.carts[b.token]...), nil
}

func (b *fakeBackend) AddToCart(ctx context.Context, productID string, quantity int) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	if _, err := b.user(); err != nil {
		return err
	}
	p, ok := b.srv.products[productID]
	if !ok {
		return &apiclient.APIError{Status: http.StatusNotFound, Message: "Product not found"}
	}
	if quantity > p.Stock {
		return &apiclient.APIError{Status: http.StatusBadRequest, Message: "Insufficient stock"}
	}
	b.srv.carts[b.token] = append(b.srv.carts[b.token], models.CartItem{
		ID: "row-" + productID, ProductID: productID, Quantity: quantity, Product: &p,
	})
	return nil
}

func (b *fakeBackend) UpdateCartItem(ctx context.Context, id string, quantity int) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	items := b.srv.carts[b.token]
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
			return nil
		}
	}
	return &apiclient.APIError{Status: http.StatusNotFound, Message: "Cart item not found"}
}

func (b *fakeBackend) RemoveFromCart(ctx context.Context, id string) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	var kept []models.CartItem
	for _, item := range b.srv.carts[b.token] {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	b.srv.carts[b.token] = kept
	return nil
}

func (b *fakeBackend) ClearCart(ctx context.Context) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	delete(b.srv.carts, b.token)
	return nil
}

func (b *fakeBackend) CreateOrder(ctx context.Context, req apiclient.CreateOrderRequest) (apiclient.CreateOrderResponse, error) {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.srv.orders = append(b.srv.orders, req)
	if b.srv.createErr != nil {
		return apiclient.CreateOrderResponse{}, b.srv.createErr
	}
	return apiclient.CreateOrderResponse{
		Order:   models.Order{ID: "ord-1", Total: req.Total},
		Payment: apiclient.PaymentInit{AuthorizationURL: "https://pay.example.com/ref-1", Reference: "ref-1"},
	}, nil
}

func (b *fakeBackend) ListOrders(ctx context.Context, page, limit int) (models.OrderPage, error) {
	return models.OrderPage{
		Orders:     []models.Order{{ID: "ord-1"}},
		Pagination: models.Pagination{Page: page, Limit: limit, Total: 1, TotalPages: 1},
	}, nil
}

func (b *fakeBackend) VerifyPayment(ctx context.Context, reference string) (apiclient.PaymentVerification, error) {
	if reference != "ref-1" {
		return apiclient.PaymentVerification{}, &apiclient.APIError{Status: http.StatusNotFound, Message: "Payment not found"}
	}
	return apiclient.PaymentVerification{
		Status: "success",
		Order:  &models.Order{ID: "ord-1", PaymentStatus: models.PaymentSuccess},
	}, nil
}

func (b *fakeBackend) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	b.srv.mu.Lock()
	defer b.srv.mu.Unlock()
	b.srv.statuses[id] = status
	return nil
}

func (b *fakeBackend) ForgotPassword(ctx context.Context, email string) (apiclient.Message, error) {
	return apiclient.Message{Message: "Reset link sent to " + email}, nil
}

type fakeCatalogAPI struct {
	srv *fakeCommerce
}

func (f fakeCatalogAPI) ListProducts(ctx context.Context, filter apiclient.ProductFilter) (models.ProductPage, error) {
	var out []models.Product
	for _, p := range f.srv.products {
		if filter.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			out = append(out, p)
		}
	}
	return models.ProductPage{Products: out, Pagination: models.Pagination{Page: filter.Page, Limit: filter.Limit, Total: len(out)}}, nil
}

func (f fakeCatalogAPI) GetProduct(ctx context.Context, id string) (models.Product, error) {
	p, ok := f.srv.products[id]
	if !ok {
		return models.Product{}, &apiclient.APIError{Status: http.StatusNotFound, Message: "Product not found"}
	}
	return p, nil
}

func (f fakeCatalogAPI) Categories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{ID: "c1", Name: "Supplements"}}, nil
}

type testApp struct {
	t      *testing.T
	router *gin.Engine
	srv    *fakeCommerce
	cookie *http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := newFakeCommerce()
	manager := session.NewManager(session.NewMemoryStorage(), srv.backend(), session.Options{TTL: time.Hour})
	router := NewRouter(Deps{
		Catalog:       catalog.NewService(fakeCatalogAPI{srv: srv}, catalog.NewMemoryCache(), time.Minute, nil),
		Sessions:      manager,
		SessionCookie: "sf_session",
		SessionTTL:    time.Hour,
	})
	return &testApp{t: t, router: router, srv: srv}
}

// do sends the request with the app's session cookie, adopting the cookie
// from the first response.
func (a *testApp) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == "sf_session" {
			a.cookie = &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	return w
}

func (a *testApp) login(email string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"secret"}`)
	if w.Code != http.StatusOK {
		a.t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
}
