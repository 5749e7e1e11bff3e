package api

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is what the backend returns on a successful login
type LoginResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// RegisterRequest represents an account creation request
type RegisterRequest struct {
	Name     string     `json:"name,omitempty"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     types.Role `json:"role"`
}

// RegisterResponse covers both backend variants: some deployments log the
// new user in immediately (token set), others only return the user.
type RegisterResponse struct {
	Token   string     `json:"token,omitempty"`
	User    types.User `json:"user"`
	Message string     `json:"message,omitempty"`
}

// Login exchanges credentials for a token and user record.
// It does not persist anything; see auth.Service for that.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &RequestError{
			Method:  "POST",
			Path:    "/auth/login",
			Status:  200,
			Message: InvalidResponseError,
			Kind:    KindContract,
			Err:     fmt.Errorf("login response has no token"),
		}
	}
	return &resp, nil
}

// Register creates an account. Role defaults to USER.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if req.Role == "" {
		req.Role = types.RoleUser
	}
	var resp RegisterResponse
	if err := c.Post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile retrieves the currently authenticated user
func (c *Client) Profile(ctx context.Context) (*types.User, error) {
	var user types.User
	if err := c.Get(ctx, "/users/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
