package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/models"
	"storefront/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

type ProfileRequest struct {
	FullName string          `json:"full_name"`
	Phone    string          `json:"phone"`
	Address  *models.Address `json:"address"`
}

type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func respondAuthError(c *gin.Context, route string, err error, fallbackStatus int) {
	var authErr *session.Error
	if errors.As(err, &authErr) {
		status := fallbackStatus
		if upstream := apiclient.StatusOf(authErr.Err); upstream >= 400 {
			status = statusForUpstream(authErr.Err)
		}
		respondWithError(c, status, route, authErr.Message)
		return
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": "/login"})
		return
	}
	respondUpstreamError(c, route, err, "Request failed")
}

// landingFor sends admins to the dashboard and everybody else to the shop.
func landingFor(user models.User) string {
	if user.IsAdmin {
		return "/admin/dashboard"
	}
	return "/products"
}

func Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		user, err := s.Auth.SignIn(c.Request.Context(), strings.ToLower(req.Email), req.Password)
		if err != nil {
			respondAuthError(c, route, err, http.StatusUnauthorized)
			return
		}
		s.Cart.FetchCart(c.Request.Context())

		logger(c).Info("user signed in", zap.String("user_id", user.ID))
		c.JSON(http.StatusOK, gin.H{"user": user, "redirect": landingFor(user)})
	}
}

func Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		user, err := s.Auth.SignUp(c.Request.Context(), apiclient.RegisterRequest{
			Email:    strings.ToLower(req.Email),
			Password: req.Password,
			FullName: strings.TrimSpace(req.FullName),
			Phone:    strings.TrimSpace(req.Phone),
		})
		if err != nil {
			respondAuthError(c, route, err, http.StatusBadRequest)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user":          user,
			"authenticated": s.Auth.IsAuthenticated(),
		})
	}
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/logout"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}
		if err := s.Auth.SignOut(c.Request.Context()); err != nil {
			logger(c).Warn("sign out storage error", zap.Error(err))
		}
		s.Cart.Reset()
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

func GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		s, ok := currentSession(c, route)
		if !ok {
			return
		}
		user, ok := s.Auth.CurrentUser()
		if !ok {
			respondAuthError(c, route, session.ErrNotAuthenticated, http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

func UpdateProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/profile"
		defer handlePanic(c, route)

		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		user, err := s.Auth.UpdateProfile(c.Request.Context(), apiclient.ProfileUpdate{
			FullName: strings.TrimSpace(req.FullName),
			Phone:    strings.TrimSpace(req.Phone),
			Address:  req.Address,
		})
		if err != nil {
			respondAuthError(c, route, err, http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// GoogleSuccess is where the OAuth provider sends the browser back with a
// token in the query string.
func GoogleSuccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/google/success"
		defer handlePanic(c, route)

		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			logger(c).Info("oauth callback without token")
			c.Redirect(http.StatusFound, "/login?error=no_token")
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		user, err := s.Auth.CompleteOAuth(c.Request.Context(), token)
		if err != nil {
			logger(c).Info("oauth sign in failed", zap.Error(err))
			c.Redirect(http.StatusFound, "/login?error=oauth_failed")
			return
		}
		s.Cart.FetchCart(c.Request.Context())
		c.Redirect(http.StatusFound, landingFor(user))
	}
}

// accountAction forwards a token or email based account request
// (verification, password reset) and relays the API's message.
func accountAction[T any](route, fallback string, call func(*gin.Context, session.Backend, T) (apiclient.Message, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		s, ok := currentSession(c, route)
		if !ok {
			return
		}

		res, err := call(c, s.API(), req)
		if err != nil {
			respondUpstreamError(c, route, err, fallback)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func VerifyEmail() gin.HandlerFunc {
	return accountAction("POST /api/auth/verify-email", "Email verification failed",
		func(c *gin.Context, api session.Backend, req TokenRequest) (apiclient.Message, error) {
			return api.VerifyEmail(c.Request.Context(), req.Token)
		})
}

func ResendVerification() gin.HandlerFunc {
	return accountAction("POST /api/auth/resend-verification", "Failed to resend verification email",
		func(c *gin.Context, api session.Backend, req EmailRequest) (apiclient.Message, error) {
			return api.ResendVerification(c.Request.Context(), strings.ToLower(req.Email))
		})
}

func ForgotPassword() gin.HandlerFunc {
	return accountAction("POST /api/auth/forgot-password", "Failed to send reset email",
		func(c *gin.Context, api session.Backend, req EmailRequest) (apiclient.Message, error) {
			return api.ForgotPassword(c.Request.Context(), strings.ToLower(req.Email))
		})
}

func ResetPassword() gin.HandlerFunc {
	return accountAction("POST /api/auth/reset-password", "Password reset failed",
		func(c *gin.Context, api session.Backend, req ResetPasswordRequest) (apiclient.Message, error) {
			return api.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
		})
}
