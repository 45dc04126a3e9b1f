package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CacheEntry describes a cached response without its body.
type CacheEntry struct {
	Key        string
	Endpoint   string
	StatusCode int
	Size       int64
	StoredAt   time.Time
	ExpiresAt  time.Time
}

// CacheQuery selects cache rows for listing or purging.
type CacheQuery struct {
	All      bool
	Endpoint string
	Prefix   string
	Expired  bool
}

func (q CacheQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.Endpoint) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	if q.Expired {
		return nil
	}
	return errors.New("must specify --all, --endpoint, --prefix, or --expired")
}

func (q CacheQuery) whereClause(now time.Time) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if endpoint := strings.TrimSpace(q.Endpoint); endpoint != "" {
		return "WHERE endpoint = ?", []any{endpoint}, nil
	}
	if prefix := strings.TrimSpace(q.Prefix); prefix != "" {
		return "WHERE endpoint LIKE ?", []any{prefix + "%"}, nil
	}
	return "WHERE expires_at <= ?", []any{now.UTC().Unix()}, nil
}

func (s *Store) ListCacheEntries(ctx context.Context, q CacheQuery) ([]CacheEntry, error) {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := q.whereClause(time.Now())
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT cache_key, endpoint, status_code, LENGTH(COALESCE(body, '')), stored_at, expires_at
		FROM response_cache
		%s
		ORDER BY endpoint, cache_key
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []CacheEntry{}
	for rows.Next() {
		var entry CacheEntry
		var storedAt, expiresAt int64
		if err := rows.Scan(&entry.Key, &entry.Endpoint, &entry.StatusCode, &entry.Size, &storedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cache entries: %w", err)
		}
		entry.StoredAt = time.Unix(storedAt, 0).UTC()
		entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}

	return entries, nil
}

func (s *Store) CountCacheEntries(ctx context.Context, q CacheQuery) (int, error) {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := q.whereClause(time.Now())
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM response_cache
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeCache(ctx context.Context, q CacheQuery) (int64, error) {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := q.whereClause(time.Now())
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM response_cache
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return affected, nil
}
