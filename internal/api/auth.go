package api

import (
	"context"
	"net/http"
)

// LoginResult is the password-step response. When MFARequired is set the
// server has started an out-of-band code challenge and no session exists yet.
type LoginResult struct {
	MFARequired      bool   `json:"mfa_required"`
	Method           string `json:"method"`
	ExpiresInMinutes int    `json:"expires_in"`
}

// Identity is the session owner as reported by the probe endpoint.
type Identity struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// RegisterRequest is the public account-creation payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login performs the credential exchange. The identifier goes on the wire
// unmodified; the server decides whether it is an email or a username.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	var out LoginResult
	err := c.post(ctx, "/api/login", map[string]string{
		"id":       identifier,
		"password": password,
	}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// LoginMFA performs the one-time-code exchange. On success the server sets
// the session cookie on this client's jar.
func (c *Client) LoginMFA(ctx context.Context, identifier, code string) error {
	return c.post(ctx, "/api/login/mfa", map[string]string{
		"id":   identifier,
		"code": code,
	}, nil)
}

// Me asks the server who the current session belongs to. Any failure means
// there is no usable session; callers must not distinguish further.
func (c *Client) Me(ctx context.Context) (Identity, error) {
	var out Identity
	if err := c.get(ctx, "/api/me", nil, &out); err != nil {
		return Identity{}, err
	}
	return out, nil
}

// Logout asks the server to invalidate the session and clear the cookie.
// Callers treat this as best-effort and proceed to the unauthenticated
// state whether or not it succeeds.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/logout", map[string]string{}, nil)
}

// Register creates a new account. Cookies are deliberately omitted: an
// existing session must not leak into registration.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, c.anon, http.MethodPost, "/api/register", nil, req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}
