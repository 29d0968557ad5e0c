package api

import (
	"context"
	"net/http"

	"github.com/roach88/perfumery/internal/model"
)

type userResponse struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

// Login signs in with email and password. The session cookie lands in the jar.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	var resp userResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", body: creds}, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// Signup registers a new customer account and signs it in.
func (c *Client) Signup(ctx context.Context, reg model.Registration) (model.User, error) {
	var resp userResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/signup", body: reg}, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// Me returns the user the session cookie belongs to.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var resp userResponse
	if err := c.do(ctx, call{method: http.MethodGet, path: "/auth/me"}, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/auth/logout"}, nil)
}

// UpdateProfile changes the signed-in user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (model.User, error) {
	var resp userResponse
	if err := c.do(ctx, call{method: http.MethodPut, path: "/auth/update-profile", body: upd}, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, chg model.PasswordChange) error {
	return c.do(ctx, call{method: http.MethodPut, path: "/auth/change-password", body: chg}, nil)
}
