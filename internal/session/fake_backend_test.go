package session

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/apiclient"
	"storefront/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, userID string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// fakeServer plays the commerce API: it knows which tokens are valid and
// keeps one cart per token.
type fakeServer struct {
	mu       sync.Mutex
	users    map[string]models.User
	carts    map[string][]models.CartItem
	password string
	issue    string
	meErr    error
	loginErr error
	meCalls  int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		users:    make(map[string]models.User),
		carts:    make(map[string][]models.CartItem),
		password: "secret",
	}
}

func (s *fakeServer) backend() BackendFunc {
	return func(token string, onUnauthorized func()) Backend {
		return &fakeBackend{srv: s, token: token, onUnauthorized: onUnauthorized}
	}
}

type fakeBackend struct {
	Backend
	srv            *fakeServer
	token          string
	onUnauthorized func()
}

func (f *fakeBackend) unauthorized() error {
	if f.onUnauthorized != nil {
		f.onUnauthorized()
	}
	return &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Invalid token"}
}

func (f *fakeBackend) Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.AuthResponse, error) {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()
	if f.srv.loginErr != nil {
		return apiclient.AuthResponse{}, f.srv.loginErr
	}
	if req.Password != f.srv.password {
		return apiclient.AuthResponse{}, &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	user := models.User{ID: "u-" + req.Email, Email: req.Email}
	f.srv.users[f.srv.issue] = user
	return apiclient.AuthResponse{Token: f.srv.issue, User: user}, nil
}

func (f *fakeBackend) Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.AuthResponse, error) {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()
	user := models.User{ID: "u-" + req.Email, Email: req.Email, FullName: req.FullName, Phone: req.Phone}
	f.srv.users[f.srv.issue] = user
	return apiclient.AuthResponse{Token: f.srv.issue, User: user}, nil
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (models.User, error) {
	f.srv.mu.Lock()
	f.srv.meCalls++
	meErr := f.srv.meErr
	user, ok := f.srv.users[f.token]
	f.srv.mu.Unlock()
	if meErr != nil {
		return models.User{}, meErr
	}
	if !ok {
		return models.User{}, f.unauthorized()
	}
	return user, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, update apiclient.ProfileUpdate) (models.User, error) {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()
	user, ok := f.srv.users[f.token]
	if !ok {
		return models.User{}, &apiclient.APIError{Status: http.StatusUnauthorized}
	}
	user.FullName = update.FullName
	f.srv.users[f.token] = user
	return user, nil
}

func (f *fakeBackend) GetCart(ctx context.Context) ([]models.CartItem, error) {
	f.srv.mu.Lock()
	_, ok := f.srv.users[f.token]
	items := f.srv.carts[f.token]
	f.srv.mu.Unlock()
	if !ok {
		return nil, f.unauthorized()
	}
	return items, nil
}

func (f *fakeBackend) AddToCart(ctx context.Context, productID string, quantity int) error {
	f.srv.mu.Lock()
	_, ok := f.srv.users[f.token]
	if ok {
		f.srv.carts[f.token] = append(f.srv.carts[f.token], models.CartItem{
			ID:        "row-" + productID,
			ProductID: productID,
			Quantity:  quantity,
			Product:   &models.Product{ID: productID, Price: 1500, Stock: 10},
		})
	}
	f.srv.mu.Unlock()
	if !ok {
		return f.unauthorized()
	}
	return nil
}

func (f *fakeBackend) ClearCart(ctx context.Context) error {
	f.srv.mu.Lock()
	defer f.srv.mu.Unlock()
	delete(f.srv.carts, f.token)
	return nil
}
