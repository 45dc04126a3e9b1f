package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TokenKey is the credential key under which the marketplace API token is
// persisted.
const TokenKey = "cataloro_token"

// GetCredential returns the stored value for a credential key. A missing key
// returns an empty value and no error.
func (s *Store) GetCredential(ctx context.Context, key string) (string, error) {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("credential key is required")
	}

	var value string
	err = s.DB.QueryRowContext(ctx, `
		SELECT value
		FROM credentials
		WHERE key = ?
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch credential: %w", err)
	}
	return value, nil
}

// SetCredential persists a credential value under the given key.
func (s *Store) SetCredential(ctx context.Context, key, value string) error {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return errors.New("credential key is required")
	case value == "":
		return errors.New("credential value is required")
	}

	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO credentials (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// DeleteCredential removes a credential and reports whether it existed.
func (s *Store) DeleteCredential(ctx context.Context, key string) (bool, error) {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return false, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, errors.New("credential key is required")
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}
	return affected > 0, nil
}
