package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/core/store"
	"github.com/cataloro/cataloro/internal/dispatch"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
	}{
		{"table", FormatTable},
		{"JSON", FormatJSON},
		{" markdown ", FormatMarkdown},
		{"", FormatTable},
	}
	for _, tc := range cases {
		format, err := ParseFormat(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, format, tc.in)
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
}

func TestFormatListings(t *testing.T) {
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	listings := []core.Listing{
		{
			ID:         "l1",
			Title:      "BMW catalyst",
			Price:      210.5,
			Currency:   "EUR",
			Category:   "Catalysts",
			Status:     core.ListingStatusPending,
			SellerName: "hans",
			CreatedAt:  &created,
		},
		{ID: "l2", Title: "VW catalyst", Price: 80, Status: core.ListingStatusActive},
	}

	tableRendered, err := FormatListings(FormatTable, listings)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "BMW catalyst")
	require.Contains(t, tableRendered, "210.50 EUR")
	require.Contains(t, tableRendered, "pending")
	require.Contains(t, tableRendered, "2 LISTINGS", "footers render upper-cased by the table style")

	jsonRendered, err := FormatListings(FormatJSON, listings)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"id\": \"l1\"")
	require.Contains(t, jsonRendered, "\"status\": \"active\"")

	markdownRendered, err := FormatListings(FormatMarkdown, listings)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(markdownRendered, "## Listings"))
	require.Contains(t, markdownRendered, "| l1 |")
}

func TestFormatBulkSummary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summary := core.Summarize(core.BulkActionApprove, []core.BulkResult{
		{ListingID: "l1", Action: core.BulkActionApprove, OK: true, CompletedAt: now},
		{ListingID: "l2", Action: core.BulkActionApprove, Error: "HTTP 500", CompletedAt: now},
	})

	rendered, err := FormatBulkSummary(FormatTable, summary)
	require.NoError(t, err)
	require.Contains(t, rendered, "l1")
	require.Contains(t, rendered, "failed")
	require.Contains(t, rendered, "HTTP 500")
	require.Contains(t, rendered, "1/2 SUCCEEDED")
}

func TestFormatCacheEntries(t *testing.T) {
	entries := []store.CacheEntry{
		{
			Key:        "GET /api/listings",
			Endpoint:   "/api/listings",
			StatusCode: 200,
			Size:       42,
			StoredAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			ExpiresAt:  time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
		},
	}

	rendered, err := FormatCacheEntries(FormatTable, entries)
	require.NoError(t, err)
	require.Contains(t, rendered, "/api/listings")
	require.Contains(t, rendered, "42B")
	require.Contains(t, rendered, "1 ENTRIES")
}

func TestFormatBackoffs(t *testing.T) {
	statuses := []dispatch.BackoffStatus{
		{
			Endpoint:         "/api/marketplace/browse",
			Until:            time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC),
			RemainingSeconds: 60,
		},
	}

	rendered, err := FormatBackoffs(FormatTable, statuses)
	require.NoError(t, err)
	require.Contains(t, rendered, "/api/marketplace/browse")
	require.Contains(t, rendered, "60s")

	jsonRendered, err := FormatBackoffs(FormatJSON, statuses)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"remaining_seconds\": 60")
}

func TestFormatDoctorReport(t *testing.T) {
	checks := []core.DoctorCheck{
		{Name: "upstream", OK: true, Detail: "reachable", Elapsed: 120 * time.Millisecond},
		{Name: "store", OK: false, Detail: "open store: no such file", Elapsed: 2 * time.Millisecond},
	}

	rendered, err := FormatDoctorReport(FormatTable, checks)
	require.NoError(t, err)
	require.Contains(t, rendered, "upstream")
	require.Contains(t, rendered, "failed")
	require.Contains(t, rendered, "120ms")
}

func TestMarkdownEscaping(t *testing.T) {
	listings := []core.Listing{
		{ID: "l1", Title: "pipe|test", Price: 1, Status: core.ListingStatusActive},
	}

	rendered, err := FormatListings(FormatMarkdown, listings)
	require.NoError(t, err)
	require.Contains(t, rendered, "pipe\\|test")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "exactly", truncate("exactly", 7))
	require.Equal(t, "long te...", truncate("long text that overflows", 10))
}
