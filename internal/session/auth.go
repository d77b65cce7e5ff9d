package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/models"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Error is a failed auth action with a message fit for the shopper.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Auth tracks who the shopper is. The token is persisted in Storage under
// TokenKey; the user is only held in memory and reloaded by CheckAuth.
type Auth struct {
	sessionID string
	storage   Storage
	backend   BackendFunc
	secret    []byte
	now       func() time.Time
	logger    *zap.Logger

	mu    sync.RWMutex
	token string
	user  *models.User
}

// API returns the commerce API bound to the current token.
func (a *Auth) API() Backend {
	return a.backend(a.Token(), a.expire)
}

func (a *Auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *Auth) IsAuthenticated() bool {
	a.mu.RLock()
	token, user := a.token, a.user
	a.mu.RUnlock()
	return user != nil && checkToken(token, a.secret, a.now()) == nil
}

func (a *Auth) CurrentUser() (models.User, bool) {
	if !a.IsAuthenticated() {
		return models.User{}, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.user, true
}

// restore loads the persisted token without calling the API.
func (a *Auth) restore(ctx context.Context) error {
	token, ok, err := a.storage.Get(ctx, a.sessionID, TokenKey)
	if err != nil {
		return err
	}
	if ok {
		a.mu.Lock()
		a.token = token
		a.mu.Unlock()
	}
	return nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (models.User, error) {
	req := apiclient.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	res, err := a.backend("", nil).Login(ctx, req)
	if err != nil {
		a.logger.Info("sign in rejected", zap.Error(err))
		return models.User{}, &Error{Op: "sign in", Message: apiclient.MessageOr(err, "Login failed"), Err: err}
	}
	if err := a.establish(ctx, res); err != nil {
		return models.User{}, &Error{Op: "sign in", Message: "Login failed", Err: err}
	}
	return res.User, nil
}

func (a *Auth) SignUp(ctx context.Context, req apiclient.RegisterRequest) (models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	res, err := a.backend("", nil).Register(ctx, req)
	if err != nil {
		a.logger.Info("sign up rejected", zap.Error(err))
		return models.User{}, &Error{Op: "sign up", Message: apiclient.MessageOr(err, "Registration failed"), Err: err}
	}
	if err := a.establish(ctx, res); err != nil {
		return models.User{}, &Error{Op: "sign up", Message: "Registration failed", Err: err}
	}
	return res.User, nil
}

// establish persists a token handed out by login or registration. Servers
// that require email verification first answer without a token.
func (a *Auth) establish(ctx context.Context, res apiclient.AuthResponse) error {
	if res.Token != "" {
		if err := a.storage.Set(ctx, a.sessionID, TokenKey, res.Token); err != nil {
			a.logger.Error("persist token failed", zap.Error(err))
			return err
		}
	}

	user := res.User
	a.mu.Lock()
	a.token = res.Token
	a.user = nil
	if res.Token != "" {
		a.user = &user
	}
	a.mu.Unlock()
	return nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	a.clearMemory()
	return a.storage.Delete(ctx, a.sessionID, TokenKey)
}

// CompleteOAuth adopts the token handed back by the Google sign-in redirect.
func (a *Auth) CompleteOAuth(ctx context.Context, token string) (models.User, error) {
	token = strings.TrimSpace(token)
	if err := checkToken(token, a.secret, a.now()); err != nil {
		return models.User{}, &Error{Op: "oauth", Message: "Authentication failed", Err: err}
	}
	if err := a.storage.Set(ctx, a.sessionID, TokenKey, token); err != nil {
		return models.User{}, &Error{Op: "oauth", Message: "Authentication failed", Err: err}
	}
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	if err := a.CheckAuth(ctx); err != nil {
		return models.User{}, &Error{Op: "oauth", Message: "Authentication failed", Err: err}
	}
	user, _ := a.CurrentUser()
	return user, nil
}

// CheckAuth reloads the user for the stored token. Missing, expired and
// rejected tokens are cleared and reported as ErrNotAuthenticated; other
// failures keep the token so a flaky API does not sign the shopper out.
func (a *Auth) CheckAuth(ctx context.Context) error {
	token := a.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	if err := checkToken(token, a.secret, a.now()); err != nil {
		a.logger.Info("discarding stored token", zap.Error(err))
		a.clear(ctx)
		return ErrNotAuthenticated
	}

	user, err := a.API().CurrentUser(ctx)
	if apiclient.IsUnauthorized(err) {
		a.clear(ctx)
		return ErrNotAuthenticated
	}
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.user = &user
	a.mu.Unlock()
	return nil
}

func (a *Auth) UpdateProfile(ctx context.Context, update apiclient.ProfileUpdate) (models.User, error) {
	if !a.IsAuthenticated() {
		return models.User{}, ErrNotAuthenticated
	}
	user, err := a.API().UpdateProfile(ctx, update)
	if err != nil {
		return models.User{}, &Error{Op: "update profile", Message: apiclient.MessageOr(err, "Profile update failed"), Err: err}
	}
	a.mu.Lock()
	a.user = &user
	a.mu.Unlock()
	return user, nil
}

func (a *Auth) clearMemory() {
	a.mu.Lock()
	a.token = ""
	a.user = nil
	a.mu.Unlock()
}

func (a *Auth) clear(ctx context.Context) {
	a.clearMemory()
	if err := a.storage.Delete(ctx, a.sessionID, TokenKey); err != nil {
		a.logger.Warn("delete token failed", zap.Error(err))
	}
}

// expire runs when the API answers 401 for the current token.
func (a *Auth) expire() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.logger.Info("token rejected by api, signing out")
	a.clear(ctx)
}
