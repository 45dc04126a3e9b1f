package market

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/cataloro/cataloro/internal/core"
)

// SearchUsers queries accounts by name or email fragment. The query string
// never reaches the backoff key, so every search shares one endpoint window.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]core.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}

	users := []core.User{}
	if err := c.do(ctx, http.MethodGet, "/users/search?q="+url.QueryEscape(query), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
