package market

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/cataloro/cataloro/internal/core"
)

// ListFavorites returns the listings a user has favorited.
func (c *Client) ListFavorites(ctx context.Context, userID string) ([]core.Listing, error) {
	path, err := userPath(userID, "/favorites")
	if err != nil {
		return nil, err
	}

	listings := []core.Listing{}
	if err := c.do(ctx, http.MethodGet, path, nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// AddFavorite marks a listing as one of the user's favorites.
func (c *Client) AddFavorite(ctx context.Context, userID, itemID string) error {
	path, err := favoritePath(userID, itemID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// RemoveFavorite drops a listing from the user's favorites.
func (c *Client) RemoveFavorite(ctx context.Context, userID, itemID string) error {
	path, err := favoritePath(userID, itemID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func favoritePath(userID, itemID string) (string, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", errors.New("item id is required")
	}
	return userPath(userID, "/favorites/"+url.PathEscape(itemID))
}
