package core

import "time"

// CachedResponse is a marketplace API response body held in the local
// response cache.
type CachedResponse struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Body       []byte    `json:"body,omitempty"`
	StoredAt   time.Time `json:"stored_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the cached response is stale at the given time.
func (r *CachedResponse) Expired(now time.Time) bool {
	if r == nil {
		return true
	}
	return !now.Before(r.ExpiresAt)
}
