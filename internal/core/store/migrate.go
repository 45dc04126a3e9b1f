package store

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS response_cache (
		cache_key TEXT PRIMARY KEY,
		endpoint TEXT NOT NULL,
		body BLOB,
		stored_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_response_cache_endpoint ON response_cache(endpoint);`,
	`CREATE INDEX IF NOT EXISTS idx_response_cache_expires ON response_cache(expires_at);`,
}

// Migrate creates missing tables and indexes. Statements are idempotent
// so this runs on every store open.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, err := s.preflight(ctx)
	if err != nil {
		return err
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	// status_code arrived after the first release; databases created
	// before it need the column added in place.
	return s.ensureColumn(ctx, "response_cache", "status_code", "INTEGER NOT NULL DEFAULT 200")
}

func (s *Store) ensureColumn(ctx context.Context, table, column, columnDef string) error {
	exists, err := s.columnExists(ctx, table, column)
	if err != nil || exists {
		return err
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnDef)
	if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add %s.%s column: %w", table, column, err)
	}
	return nil
}

func (s *Store) columnExists(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("inspect %s schema: %w", table, err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("inspect %s columns: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("inspect %s columns: %w", table, err)
	}
	return false, nil
}
