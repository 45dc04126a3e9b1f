package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/core/store"
	"github.com/cataloro/cataloro/internal/dispatch"
)

// FormatListings renders marketplace listings.
func FormatListings(format Format, listings []core.Listing) (string, error) {
	s := sheet{
		Title:  "Listings",
		Header: []string{"ID", "Title", "Price", "Category", "Status", "Seller", "Created"},
	}
	for _, l := range listings {
		s.Rows = append(s.Rows, []string{
			l.ID,
			truncate(l.Title, 40),
			formatPrice(l.Price, l.Currency),
			l.Category,
			string(l.Status),
			l.SellerName,
			formatTimePtr(l.CreatedAt),
		})
	}
	s.Footer = []string{fmt.Sprintf("%d listings", len(listings)), "", "", "", "", "", ""}

	return render(format, listings, s)
}

// FormatUsers renders user search results.
func FormatUsers(format Format, users []core.User) (string, error) {
	s := sheet{
		Title:  "Users",
		Header: []string{"ID", "Username", "Email", "Role", "Verified"},
	}
	for _, u := range users {
		s.Rows = append(s.Rows, []string{
			u.ID,
			u.Username,
			u.Email,
			u.Role,
			yesNo(u.Verified),
		})
	}

	return render(format, users, s)
}

// FormatMessages renders a message inbox.
func FormatMessages(format Format, messages []core.Message) (string, error) {
	s := sheet{
		Title:  "Messages",
		Header: []string{"ID", "From", "Subject", "Content", "Read", "Sent"},
	}
	for _, m := range messages {
		s.Rows = append(s.Rows, []string{
			m.ID,
			m.SenderName,
			truncate(m.Subject, 30),
			truncate(m.Content, 50),
			yesNo(m.Read),
			formatTimePtr(m.CreatedAt),
		})
	}

	return render(format, messages, s)
}

// FormatNotifications renders a notification feed.
func FormatNotifications(format Format, notifications []core.Notification) (string, error) {
	s := sheet{
		Title:  "Notifications",
		Header: []string{"ID", "Type", "Title", "Message", "Read", "Created"},
	}
	for _, n := range notifications {
		s.Rows = append(s.Rows, []string{
			n.ID,
			string(n.Type),
			truncate(n.Title, 30),
			truncate(n.Message, 50),
			yesNo(n.Read),
			formatTimePtr(n.CreatedAt),
		})
	}

	return render(format, notifications, s)
}

// FormatBulkSummary renders per-item outcomes of a bulk moderation run.
func FormatBulkSummary(format Format, summary core.BulkSummary) (string, error) {
	s := sheet{
		Title:  fmt.Sprintf("Bulk %s", summary.Action),
		Header: []string{"Listing", "Action", "Outcome", "Error"},
	}
	for _, r := range summary.Results {
		outcome := "ok"
		if !r.OK {
			outcome = "failed"
		}
		s.Rows = append(s.Rows, []string{
			r.ListingID,
			string(r.Action),
			outcome,
			truncate(r.Error, 60),
		})
	}
	s.Footer = []string{
		fmt.Sprintf("%d/%d succeeded", summary.Succeeded, summary.Requested),
		"", "", "",
	}

	return render(format, summary, s)
}

// FormatCacheEntries renders response cache rows.
func FormatCacheEntries(format Format, entries []store.CacheEntry) (string, error) {
	s := sheet{
		Title:  "Response cache",
		Header: []string{"Key", "Endpoint", "Status", "Size", "Stored", "Expires"},
	}
	for _, e := range entries {
		s.Rows = append(s.Rows, []string{
			truncate(e.Key, 40),
			e.Endpoint,
			fmt.Sprintf("%d", e.StatusCode),
			fmt.Sprintf("%dB", e.Size),
			formatTime(e.StoredAt),
			formatTime(e.ExpiresAt),
		})
	}
	s.Footer = []string{fmt.Sprintf("%d entries", len(entries)), "", "", "", "", ""}

	return render(format, entries, s)
}

// FormatBackoffs renders active backoff windows.
func FormatBackoffs(format Format, statuses []dispatch.BackoffStatus) (string, error) {
	s := sheet{
		Title:  "Active backoff windows",
		Header: []string{"Endpoint", "Until", "Remaining"},
	}
	for _, b := range statuses {
		s.Rows = append(s.Rows, []string{
			b.Endpoint,
			formatTime(b.Until),
			fmt.Sprintf("%.0fs", b.RemainingSeconds),
		})
	}

	return render(format, statuses, s)
}

// FormatDoctorReport renders connectivity probe results.
func FormatDoctorReport(format Format, checks []core.DoctorCheck) (string, error) {
	s := sheet{
		Title:  "Doctor",
		Header: []string{"Check", "Status", "Detail", "Elapsed"},
	}
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "failed"
		}
		s.Rows = append(s.Rows, []string{
			c.Name,
			status,
			truncate(c.Detail, 60),
			c.Elapsed.Round(time.Millisecond).String(),
		})
	}

	return render(format, checks, s)
}

func formatPrice(price float64, currency string) string {
	if strings.TrimSpace(currency) == "" {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
