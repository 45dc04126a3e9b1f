package market

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cataloro/cataloro/internal/core"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token and the account profile.
// The client itself is not mutated; callers decide where the token lives.
func (c *Client) Login(ctx context.Context, email, password string) (*core.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	var result core.LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Token) == "" {
		return nil, errors.New("login response missing token")
	}

	return &result, nil
}

// Profile returns the account behind the configured token.
func (c *Client) Profile(ctx context.Context) (*core.User, error) {
	var user core.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
