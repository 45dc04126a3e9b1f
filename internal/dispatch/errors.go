package dispatch

import (
	"errors"
	"fmt"
	"time"
)

// BackoffError reports a call rejected locally because the endpoint key is
// inside an active backoff window. No network attempt was made.
type BackoffError struct {
	Key   string
	Until time.Time
}

func (e *BackoffError) Error() string {
	if e == nil {
		return "backoff active"
	}
	return fmt.Sprintf("backoff active for %s until %s", e.Key, e.Until.Format(time.RFC3339))
}

// RetryAfter returns how long a caller should wait before trying again.
func (e *BackoffError) RetryAfter(now time.Time) time.Duration {
	if e == nil || !now.Before(e.Until) {
		return 0
	}
	return e.Until.Sub(now)
}

// RetriesExhaustedError reports that every attempt up to the retry limit
// returned 429. Until is the backoff window left behind by the final attempt.
type RetriesExhaustedError struct {
	Key      string
	Attempts int
	Until    time.Time
}

func (e *RetriesExhaustedError) Error() string {
	if e == nil {
		return "retries exhausted"
	}
	return fmt.Sprintf("retries exhausted for %s after %d attempts, backoff until %s", e.Key, e.Attempts, e.Until.Format(time.RFC3339))
}

// StatusError is returned by Do when the endpoint responds with a non-2xx,
// non-429 status. These responses are surfaced on first occurrence and never
// retried.
//
// Snippet carries a bounded prefix of the response body and must never
// include credentials.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "request failed"
	}
	if e.Snippet != "" {
		return fmt.Sprintf("%s %s failed: status %d: %s", e.Method, e.URL, e.StatusCode, e.Snippet)
	}
	return fmt.Sprintf("%s %s failed: status %d", e.Method, e.URL, e.StatusCode)
}

// IsBackoff reports whether err is a backoff rejection.
func IsBackoff(err error) bool {
	var backoff *BackoffError
	return errors.As(err, &backoff)
}

// IsRetriesExhausted reports whether err is a retry-limit failure.
func IsRetriesExhausted(err error) bool {
	var exhausted *RetriesExhaustedError
	return errors.As(err, &exhausted)
}

// StatusCode extracts the HTTP status from a StatusError, or 0 when err is
// any other kind of failure.
func StatusCode(err error) int {
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode
	}
	return 0
}
