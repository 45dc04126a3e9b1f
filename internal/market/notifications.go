package market

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/cataloro/cataloro/internal/core"
)

// ListNotifications returns the user's notifications.
func (c *Client) ListNotifications(ctx context.Context, userID string) ([]core.Notification, error) {
	path, err := userPath(userID, "/notifications")
	if err != nil {
		return nil, err
	}

	notifications := []core.Notification{}
	if err := c.do(ctx, http.MethodGet, path, nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CreateNotification posts a notification to the user's feed.
func (c *Client) CreateNotification(ctx context.Context, userID string, n core.NewNotification) (*core.Notification, error) {
	path, err := userPath(userID, "/notifications")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(n.Title) == "" {
		return nil, errors.New("notification title is required")
	}

	var created core.Notification
	if err := c.do(ctx, http.MethodPost, path, n, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkNotificationRead flags a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return errors.New("notification id is required")
	}

	path, err := userPath(userID, "/notifications/"+url.PathEscape(notificationID)+"/read")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, nil, nil)
}
