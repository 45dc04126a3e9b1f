package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cataloro/cataloro/internal/core"
)

func TestBrowseQueryRequestPath(t *testing.T) {
	require.Equal(t, "/api/marketplace/browse", BrowseQuery{}.RequestPath())

	query := BrowseQuery{
		Status:   core.ListingStatusPending,
		Category: "Catalysts",
		Search:   "bmw",
		Page:     2,
		PageSize: 50,
	}
	require.Equal(t, "/api/marketplace/browse?category=Catalysts&page=2&page_size=50&search=bmw&status=pending", query.RequestPath())
}

func TestBrowseListings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/marketplace/browse", r.URL.Path)
		require.Equal(t, "pending", r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"l1","title":"BMW catalyst","price":210,"status":"pending"},
			{"id":"l2","title":"VW catalyst","price":95,"status":"pending"}
		]`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	listings, err := client.BrowseListings(context.Background(), BrowseQuery{Status: core.ListingStatusPending})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	require.Equal(t, "l1", listings[0].ID)
	require.Equal(t, float64(95), listings[1].Price)
}

func TestGetListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/listings/l1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"l1","title":"BMW catalyst","price":210,"status":"active","images":["/uploads/l1/a.jpg"]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	listing, err := client.GetListing(context.Background(), "l1")
	require.NoError(t, err)
	require.Equal(t, core.ListingStatusActive, listing.Status)
	require.Equal(t, []string{"/uploads/l1/a.jpg"}, listing.Images)
}

func TestGetListingRequiresID(t *testing.T) {
	client := testClient("http://localhost:0")

	_, err := client.GetListing(context.Background(), " ")
	require.Error(t, err)
}

func TestUpdateListingStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/listings/l1", r.URL.Path)

		var payload struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "active", payload.Status)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"l1","title":"BMW catalyst","price":210,"status":"active"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	updated, err := client.UpdateListingStatus(context.Background(), "l1", core.ListingStatusActive)
	require.NoError(t, err)
	require.Equal(t, core.ListingStatusActive, updated.Status)
}

func TestDeleteListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/listings/l9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server.URL)
	require.NoError(t, client.DeleteListing(context.Background(), "l9"))
}
