package market

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cataloro/cataloro/internal/core"
)

// BrowseQuery filters the marketplace browse endpoint. Zero values are
// omitted from the query string.
type BrowseQuery struct {
	Status   core.ListingStatus
	Category string
	Search   string
	Page     int
	PageSize int
}

// RequestPath is the browse path with the encoded query. Callers use it as a
// cache key so distinct filters never share an entry.
func (q BrowseQuery) RequestPath() string {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", string(q.Status))
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		values.Set("category", category)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		values.Set("search", search)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(q.PageSize))
	}

	path := "/api/marketplace/browse"
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// BrowseListings returns marketplace listings matching the query. All browse
// variants share the /api/marketplace/browse backoff key.
func (c *Client) BrowseListings(ctx context.Context, query BrowseQuery) ([]core.Listing, error) {
	listings := []core.Listing{}
	if err := c.do(ctx, http.MethodGet, query.RequestPath(), nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing returns a single listing by id.
func (c *Client) GetListing(ctx context.Context, id string) (*core.Listing, error) {
	path, err := listingPath(id)
	if err != nil {
		return nil, err
	}

	var listing core.Listing
	if err := c.do(ctx, http.MethodGet, path, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

type statusUpdate struct {
	Status core.ListingStatus `json:"status"`
}

// UpdateListingStatus moves a listing to a new moderation state and returns
// the updated listing.
func (c *Client) UpdateListingStatus(ctx context.Context, id string, status core.ListingStatus) (*core.Listing, error) {
	path, err := listingPath(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(status)) == "" {
		return nil, errors.New("listing status is required")
	}

	var updated core.Listing
	if err := c.do(ctx, http.MethodPut, path, statusUpdate{Status: status}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteListing removes a listing permanently.
func (c *Client) DeleteListing(ctx context.Context, id string) error {
	path, err := listingPath(id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
