package market

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/cataloro/cataloro/internal/core"
)

// ListMessages returns the user's message inbox, newest first as the API
// orders it.
func (c *Client) ListMessages(ctx context.Context, userID string) ([]core.Message, error) {
	path, err := userPath(userID, "/messages")
	if err != nil {
		return nil, err
	}

	messages := []core.Message{}
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage delivers a message from the user to the payload's recipient.
func (c *Client) SendMessage(ctx context.Context, userID string, msg core.NewMessage) (*core.Message, error) {
	path, err := userPath(userID, "/messages")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.RecipientID) == "" {
		return nil, errors.New("recipient id is required")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, errors.New("message content is required")
	}

	var sent core.Message
	if err := c.do(ctx, http.MethodPost, path, msg, &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}

// MarkMessageRead flags a message as read.
func (c *Client) MarkMessageRead(ctx context.Context, userID, messageID string) error {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return errors.New("message id is required")
	}

	path, err := userPath(userID, "/messages/"+url.PathEscape(messageID)+"/read")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, nil, nil)
}
