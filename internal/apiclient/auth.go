package apiclient

import (
	"context"

	"storefront/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type ProfileUpdate struct {
	FullName string          `json:"full_name,omitempty"`
	Phone    string          `json:"phone,omitempty"`
	Address  *models.Address `json:"address,omitempty"`
}

type userResponse struct {
	User models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	var res AuthResponse
	err := c.post(ctx, "/auth/login", req, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var res AuthResponse
	err := c.post(ctx, "/auth/register", req, &res)
	return res, err
}

func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	var res userResponse
	if err := c.get(ctx, "/auth/me", nil, &res); err != nil {
		return models.User{}, err
	}
	return res.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.User, error) {
	var res userResponse
	if err := c.put(ctx, "/auth/profile", update, &res); err != nil {
		return models.User{}, err
	}
	return res.User, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (Message, error) {
	var res Message
	err := c.post(ctx, "/auth/verify-email", map[string]string{"token": token}, &res)
	return res, err
}

func (c *Client) ResendVerification(ctx context.Context, email string) (Message, error) {
	var res Message
	err := c.post(ctx, "/auth/resend-verification", map[string]string{"email": email}, &res)
	return res, err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (Message, error) {
	var res Message
	err := c.post(ctx, "/auth/forgot-password", map[string]string{"email": email}, &res)
	return res, err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (Message, error) {
	var res Message
	err := c.post(ctx, "/auth/reset-password", map[string]string{"token": token, "newPassword": newPassword}, &res)
	return res, err
}
