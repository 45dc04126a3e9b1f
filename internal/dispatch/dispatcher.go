package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cataloro/cataloro/internal/metrics"
)

const (
	// DefaultMaxRetries bounds automatic retries after the initial attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the backoff window opened by the first 429; the
	// window doubles on every consecutive 429 for the same endpoint.
	DefaultBaseDelay = 30 * time.Second

	maxErrorSnippet = 4 << 10
)

// Dispatcher issues HTTP requests with per-endpoint backoff. A 429 response
// opens a backoff window for the request's endpoint key and the call retries
// on an exponential schedule; while a window is open, further calls to the
// same key fail fast with *BackoffError without touching the network.
//
// Each Dispatcher owns its registry, so one instance is one client session.
// The zero value is usable with defaults; fields are read-once configuration
// and must not be mutated after the first call.
type Dispatcher struct {
	// Client performs the underlying round trips. Defaults to a client with
	// a 30-second timeout. The dispatcher adds no timeout of its own.
	Client *http.Client

	// MaxRetries bounds automatic retries after the initial attempt. Zero
	// selects DefaultMaxRetries.
	MaxRetries int

	// BaseDelay is the backoff window for the first 429; attempt n waits
	// BaseDelay << n. Zero selects DefaultBaseDelay.
	BaseDelay time.Duration

	// Pacer, when set, throttles outgoing attempts before they reach the
	// network. It never affects the fail-fast check or the 429 schedule.
	Pacer *rate.Limiter

	// Logger, when set, records skips, retries, and clears.
	Logger *logging.Logger

	// Clock and Sleep are injection points for deterministic tests.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	registry Registry
}

// New returns a Dispatcher with the default retry policy.
func New() *Dispatcher {
	return &Dispatcher{}
}

var defaultClient = &http.Client{Timeout: 30 * time.Second}

// Do issues the request with backoff handling and classifies the response:
// any 2xx is returned open, anything else becomes a typed error. Errors are
// *BackoffError, *RetriesExhaustedError, *StatusError, or the transport's
// own failure passed through unchanged.
func (d *Dispatcher) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	if ctx == nil {
		ctx = req.Context()
	}

	resp, err := d.dispatch(ctx, req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(req, resp)
	}
	return resp, nil
}

// RoundTrip implements http.RoundTripper with the same backoff policy, but
// passes every non-429 response through untouched. This lets the dispatcher
// serve as the transport of a plain *http.Client or of a proxy handler.
func (d *Dispatcher) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	return d.dispatch(req.Context(), req)
}

// Registry exposes the dispatcher's backoff state for admin surfaces.
func (d *Dispatcher) Registry() *Registry {
	return &d.registry
}

// Backoffs returns the currently active backoff windows, soonest first.
func (d *Dispatcher) Backoffs() []BackoffStatus {
	return d.registry.Snapshot(d.now())
}

// Reset drops all backoff state, returning the dispatcher to a fresh session.
func (d *Dispatcher) Reset() {
	d.registry.Reset()
}

// dispatch runs the bounded attempt loop. Only a 429 triggers a retry; the
// first non-429 response, success or not, ends the loop and clears any
// recorded backoff for the key.
func (d *Dispatcher) dispatch(ctx context.Context, req *http.Request) (*http.Response, error) {
	key := EndpointKey(req.URL.String())

	if until, active := d.registry.Active(key, d.now()); active {
		d.logSkip(key, until)
		metrics.RecordBackoffSkip(key)
		return nil, &BackoffError{Key: key, Until: until}
	}

	client := d.Client
	if client == nil {
		client = defaultClient
	}
	maxRetries := d.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	baseDelay := d.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req
		if attempt > 0 {
			replayed, err := replayRequest(req)
			if err != nil {
				return nil, err
			}
			attemptReq = replayed
		}

		if d.Pacer != nil {
			if err := d.Pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			// Transport failures propagate unchanged and are never
			// retried here.
			return nil, err
		}
		metrics.RecordDispatchRequest(key, resp.StatusCode)

		if resp.StatusCode != http.StatusTooManyRequests {
			if d.registry.Clear(key) {
				d.logClear(key, resp.StatusCode)
			}
			return resp, nil
		}

		drainBody(resp)

		delay := baseDelay << attempt
		until := d.now().Add(delay)
		d.registry.Record(key, until)

		if attempt >= maxRetries {
			metrics.RecordDispatchExhausted(key)
			return nil, &RetriesExhaustedError{Key: key, Attempts: attempt + 1, Until: until}
		}

		d.logRetry(key, attempt, delay)
		metrics.RecordDispatchRetry(key)
		if err := d.wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// replayRequest builds a fresh request for a retry attempt. Bodies are
// replayed through GetBody, which net/http populates for byte-backed readers.
func replayRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed for retry")
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

func statusError(req *http.Request, resp *http.Response) *StatusError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
	_ = resp.Body.Close()

	return &StatusError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Snippet:    string(snippet),
	}
}

func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorSnippet))
	_ = resp.Body.Close()
}

func (d *Dispatcher) wait(ctx context.Context, delay time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, delay)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Dispatcher) now() time.Time {
	if d != nil && d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) logSkip(key string, until time.Time) {
	if d.Logger == nil {
		return
	}
	d.Logger.Debug("request skipped, backoff active",
		zap.String("endpoint", key),
		zap.Time("until", until))
}

func (d *Dispatcher) logRetry(key string, attempt int, delay time.Duration) {
	if d.Logger == nil {
		return
	}
	d.Logger.Warn("rate limited, backing off",
		zap.String("endpoint", key),
		zap.Int("attempt", attempt+1),
		zap.Duration("delay", delay))
}

func (d *Dispatcher) logClear(key string, statusCode int) {
	if d.Logger == nil {
		return
	}
	d.Logger.Debug("backoff cleared",
		zap.String("endpoint", key),
		zap.Int("status", statusCode))
}
