package dispatch

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// EndpointKey derives the backoff grouping key for a request URL by
// truncating at the first '?'. Queries against the same resource share one
// backoff window regardless of parameters.
func EndpointKey(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// Registry maps endpoint keys to the instant their backoff window ends. It is
// owned by a Dispatcher instance and lives for the process; nothing is
// persisted. The zero value is ready to use.
type Registry struct {
	mu    sync.Mutex
	until map[string]time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{until: make(map[string]time.Time)}
}

// Active reports whether key has a backoff window covering now, returning the
// window end when it does.
func (r *Registry) Active(key string, now time.Time) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.until[key]
	if !ok || !now.Before(until) {
		return time.Time{}, false
	}
	return until, true
}

// Until returns the recorded window end for key, whether or not it has
// elapsed.
func (r *Registry) Until(key string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.until[key]
	return until, ok
}

// Record sets the backoff window end for key, overwriting any prior value.
func (r *Registry) Record(key string, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.until == nil {
		r.until = make(map[string]time.Time)
	}
	r.until[key] = until
}

// Clear removes key and reports whether an entry existed.
func (r *Registry) Clear(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.until[key]; !ok {
		return false
	}
	delete(r.until, key)
	return true
}

// Len reports the number of recorded keys, elapsed or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.until)
}

// Reset drops all entries.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.until = make(map[string]time.Time)
}

// BackoffStatus describes one active backoff window.
type BackoffStatus struct {
	Endpoint         string    `json:"endpoint"`
	Until            time.Time `json:"until"`
	RemainingSeconds float64   `json:"remaining_seconds"`
}

// Snapshot returns the windows still active at now, soonest to expire first.
func (r *Registry) Snapshot(now time.Time) []BackoffStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]BackoffStatus, 0, len(r.until))
	for key, until := range r.until {
		if !now.Before(until) {
			continue
		}
		statuses = append(statuses, BackoffStatus{
			Endpoint:         key,
			Until:            until,
			RemainingSeconds: until.Sub(now).Seconds(),
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Until.Equal(statuses[j].Until) {
			return statuses[i].Endpoint < statuses[j].Endpoint
		}
		return statuses[i].Until.Before(statuses[j].Until)
	})
	return statuses
}
