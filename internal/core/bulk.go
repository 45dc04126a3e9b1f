package core

import "time"

// BulkAction identifies a moderation action applied to a set of listings.
type BulkAction string

const (
	BulkActionApprove BulkAction = "approve"
	BulkActionReject  BulkAction = "reject"
	BulkActionDelete  BulkAction = "delete"
)

// Valid reports whether the action is one the listings API accepts.
func (a BulkAction) Valid() bool {
	switch a {
	case BulkActionApprove, BulkActionReject, BulkActionDelete:
		return true
	}
	return false
}

// BulkResult captures the outcome for a single listing in a bulk run. Failed
// items carry the error text; the run itself keeps going.
type BulkResult struct {
	ListingID   string     `json:"listing_id"`
	Action      BulkAction `json:"action"`
	OK          bool       `json:"ok"`
	Error       string     `json:"error,omitempty"`
	CompletedAt time.Time  `json:"completed_at"`
}

// BulkSummary aggregates a bulk run for reporting.
type BulkSummary struct {
	Action    BulkAction   `json:"action"`
	Requested int          `json:"requested"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []BulkResult `json:"results"`
}

// Summarize folds per-item results into a summary, preserving input order.
func Summarize(action BulkAction, results []BulkResult) BulkSummary {
	summary := BulkSummary{Action: action, Requested: len(results), Results: results}
	for _, r := range results {
		if r.OK {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}
