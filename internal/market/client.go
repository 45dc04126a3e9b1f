package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cataloro/cataloro/internal/dispatch"
)

const (
	defaultBaseURL   = "http://localhost:8001"
	defaultUserAgent = "cataloro-cli"
)

// Client calls the Cataloro marketplace REST API. Every request flows through
// a Dispatcher, so all operations on one client share the same per-endpoint
// backoff state.
type Client struct {
	BaseURL    string
	Token      string
	UserAgent  string
	Dispatcher *dispatch.Dispatcher
	Clock      func() time.Time
}

// New returns a client with its own dispatcher session.
func New(baseURL, token string) *Client {
	value := strings.TrimSpace(baseURL)
	if value == "" {
		value = defaultBaseURL
	}

	return &Client{
		BaseURL:    value,
		Token:      strings.TrimSpace(token),
		Dispatcher: dispatch.New(),
	}
}

// defaultDispatcher serves zero-value clients; its registry spans the process.
var defaultDispatcher = dispatch.New()

// Ping reports whether the marketplace answers at all. Any HTTP response
// counts as reachable; only transport failures and backoff windows surface
// as errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}

	resp, err := c.dispatcher().Do(ctx, req)
	if err != nil {
		var statusErr *dispatch.StatusError
		if errors.As(err, &statusErr) {
			return nil
		}
		return err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Download fetches a raw resource through the dispatcher. Listing images are
// addressed by absolute URL; relative paths resolve against the base URL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, "", errors.New("download url is required")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = strings.TrimRight(c.baseURL(), "/") + "/" + strings.TrimLeft(rawURL, "/")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	if token := strings.TrimSpace(c.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.dispatcher().Do(ctx, req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// do issues a JSON request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.dispatcher().Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.baseURL(), "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(c.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

func (c *Client) dispatcher() *dispatch.Dispatcher {
	if c != nil && c.Dispatcher != nil {
		return c.Dispatcher
	}
	return defaultDispatcher
}

func (c *Client) baseURL() string {
	if c != nil && strings.TrimSpace(c.BaseURL) != "" {
		return strings.TrimSpace(c.BaseURL)
	}
	return defaultBaseURL
}

func (c *Client) userAgent() string {
	if c != nil && strings.TrimSpace(c.UserAgent) != "" {
		return strings.TrimSpace(c.UserAgent)
	}
	return defaultUserAgent
}

func (c *Client) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func userPath(userID, suffix string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}
	return "/api/user/" + url.PathEscape(userID) + suffix, nil
}

func listingPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("listing id is required")
	}
	return "/api/listings/" + url.PathEscape(id), nil
}
