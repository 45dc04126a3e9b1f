package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cataloro/cataloro/internal/core"
)

// GetCachedResponse returns a cached API response if it is still valid. A
// missing or expired entry returns nil and no error.
func (s *Store) GetCachedResponse(ctx context.Context, key string) (*core.CachedResponse, error) {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return nil, err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("cache key is required")
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT endpoint, status_code, body, stored_at, expires_at
		FROM response_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, time.Now().UTC().Unix())

	var cached core.CachedResponse
	var storedAt, expiresAt int64
	if err := row.Scan(&cached.Endpoint, &cached.StatusCode, &cached.Body, &storedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached response: %w", err)
	}

	cached.StoredAt = time.Unix(storedAt, 0).UTC()
	cached.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &cached, nil
}

// SetCachedResponse stores an API response body with a TTL. A non-positive
// TTL disables caching for the call.
func (s *Store) SetCachedResponse(ctx context.Context, key, endpoint string, statusCode int, body []byte, ttl time.Duration) error {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	key = strings.TrimSpace(key)
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case key == "":
		return errors.New("cache key is required")
	case endpoint == "":
		return errors.New("cache endpoint is required")
	}

	now := time.Now().UTC()
	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO response_cache (cache_key, endpoint, status_code, body, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			endpoint = excluded.endpoint,
			status_code = excluded.status_code,
			body = excluded.body,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at
	`, key, endpoint, statusCode, body, now.Unix(), now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}
	return nil
}
