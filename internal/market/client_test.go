package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/dispatch"
)

func testClient(serverURL string) *Client {
	client := New(serverURL, "token123")
	return client
}

func TestClientSendsAuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Equal(t, "cataloro-cli", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	listings, err := client.ListFavorites(context.Background(), "u1")
	require.NoError(t, err)
	require.Empty(t, listings)
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "admin@cataloro.com", payload.Email)
		require.Equal(t, "secret", payload.Password)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"jwt-abc","user":{"id":"u1","username":"admin","role":"admin"}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	result, err := client.Login(context.Background(), "admin@cataloro.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "jwt-abc", result.Token)
	require.Equal(t, "admin", result.User.Username)
}

func TestLoginRejectsMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"","user":{"id":"u1","username":"admin"}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.Login(context.Background(), "admin@cataloro.com", "secret")
	require.ErrorContains(t, err, "missing token")
}

func TestProfileUnauthorized(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid token"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.Profile(context.Background())
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, dispatch.StatusCode(err))
	require.Equal(t, int32(1), calls.Load())
}

func TestPingTreatsErrorStatusAsReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := testClient(server.URL)
	require.NoError(t, client.Ping(context.Background()))
}

func TestPingPropagatesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := testClient(server.URL)
	require.Error(t, client.Ping(context.Background()))
}

func TestSearchUsersEscapesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/search", r.URL.Path)
		require.Equal(t, "jo hn", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"u2","username":"john"}]`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	users, err := client.SearchUsers(context.Background(), "jo hn")
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "john", users[0].Username)
}

func TestSearchUsersRequiresQuery(t *testing.T) {
	client := testClient("http://localhost:0")

	_, err := client.SearchUsers(context.Background(), "   ")
	require.Error(t, err)
}

func TestFavoritesLifecycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			require.Equal(t, "/api/user/u1/favorites/item9", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete:
			require.Equal(t, "/api/user/u1/favorites/item9", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			require.Equal(t, "/api/user/u1/favorites", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"item9","title":"Catalytic converter","price":120.5,"status":"active"}]`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	ctx := context.Background()

	require.NoError(t, client.AddFavorite(ctx, "u1", "item9"))

	favorites, err := client.ListFavorites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.Equal(t, "Catalytic converter", favorites[0].Title)
	require.Equal(t, core.ListingStatusActive, favorites[0].Status)

	require.NoError(t, client.RemoveFavorite(ctx, "u1", "item9"))
}

func TestMessagesRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			require.Equal(t, "/api/user/u1/messages", r.URL.Path)

			var payload core.NewMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Equal(t, "u2", payload.RecipientID)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"m1","sender_id":"u1","recipient_id":"u2","content":"hello","read":false}`))
		case r.Method == http.MethodPut:
			require.Equal(t, "/api/user/u1/messages/m1/read", r.URL.Path)
		default:
			require.Equal(t, "/api/user/u1/messages", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"m1","sender_id":"u2","recipient_id":"u1","content":"hi","read":false}]`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	ctx := context.Background()

	sent, err := client.SendMessage(ctx, "u1", core.NewMessage{RecipientID: "u2", Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, "m1", sent.ID)

	messages, err := client.ListMessages(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.False(t, messages[0].Read)

	require.NoError(t, client.MarkMessageRead(ctx, "u1", "m1"))
}

func TestNotificationsRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			require.Equal(t, "/api/user/u1/notifications", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"n1","user_id":"u1","title":"Listing approved","type":"system","read":false}`))
		case r.Method == http.MethodPut:
			require.Equal(t, "/api/user/u1/notifications/n1/read", r.URL.Path)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"n1","user_id":"u1","title":"Listing approved","read":false}]`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	ctx := context.Background()

	created, err := client.CreateNotification(ctx, "u1", core.NewNotification{Title: "Listing approved", Type: core.NotificationTypeSystem})
	require.NoError(t, err)
	require.Equal(t, core.NotificationTypeSystem, created.Type)

	notifications, err := client.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	require.NoError(t, client.MarkNotificationRead(ctx, "u1", "n1"))
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/uploads/item9/front.jpg", r.URL.Path)
		require.Equal(t, "Bearer token123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	}))
	defer server.Close()

	client := testClient(server.URL)

	body, contentType, err := client.Download(context.Background(), "/uploads/item9/front.jpg")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", contentType)
	require.Equal(t, []byte{0xFF, 0xD8, 0xFF}, body)
}

func TestClientSharesBackoffAcrossCalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	client := testClient(server.URL)
	client.Dispatcher = &dispatch.Dispatcher{
		Clock: func() time.Time { return now },
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
	}

	_, err := client.ListMessages(context.Background(), "u1")
	require.True(t, dispatch.IsRetriesExhausted(err))
	require.Equal(t, int32(4), calls.Load())

	// The endpoint is in backoff now, so the next call never reaches the
	// server.
	_, err = client.ListMessages(context.Background(), "u1")
	require.True(t, dispatch.IsBackoff(err))
	require.Equal(t, int32(4), calls.Load())

	// A different endpoint on the same client is unaffected.
	_, err = client.ListNotifications(context.Background(), "u1")
	require.True(t, dispatch.IsRetriesExhausted(err))
	require.Equal(t, int32(8), calls.Load())
}
