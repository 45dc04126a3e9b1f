package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cataloro/cataloro/internal/core"
)

type bulkJob struct {
	index int
	id    string
}

// BulkUpdateListings applies one moderation action to many listings with a
// bounded worker pool. Item failures are collected into the results, not
// fatal; only context cancellation ends the run early, and then the returned
// error is the context's.
func (c *Client) BulkUpdateListings(ctx context.Context, ids []string, action core.BulkAction, concurrency int) ([]core.BulkResult, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unsupported bulk action: %s", action)
	}

	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if value := strings.TrimSpace(id); value != "" {
			cleaned = append(cleaned, value)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("at least one listing id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(cleaned) {
		concurrency = len(cleaned)
	}

	results := make([]core.BulkResult, len(cleaned))
	jobs := make(chan bulkJob)

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for job := range jobs {
			results[job.index] = c.applyBulkAction(ctx, job.id, action)
		}
	}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go worker()
	}

sendLoop:
	for i, id := range cleaned {
		select {
		case <-ctx.Done():
			break sendLoop
		case jobs <- bulkJob{index: i, id: id}:
		}
	}
	close(jobs)
	wg.Wait()

	// Items never handed to a worker still get a result row.
	for i, id := range cleaned {
		if results[i].ListingID != "" {
			continue
		}
		reason := "not dispatched"
		if err := ctx.Err(); err != nil {
			reason = "not dispatched: " + err.Error()
		}
		results[i] = core.BulkResult{ListingID: id, Action: action, Error: reason, CompletedAt: c.now()}
	}

	return results, ctx.Err()
}

func (c *Client) applyBulkAction(ctx context.Context, id string, action core.BulkAction) core.BulkResult {
	result := core.BulkResult{ListingID: id, Action: action}

	var err error
	switch action {
	case core.BulkActionApprove:
		_, err = c.UpdateListingStatus(ctx, id, core.ListingStatusActive)
	case core.BulkActionReject:
		_, err = c.UpdateListingStatus(ctx, id, core.ListingStatusRejected)
	case core.BulkActionDelete:
		err = c.DeleteListing(ctx, id)
	default:
		err = fmt.Errorf("unsupported bulk action: %s", action)
	}

	if err != nil {
		result.Error = err.Error()
	} else {
		result.OK = true
	}
	result.CompletedAt = c.now()

	return result
}
