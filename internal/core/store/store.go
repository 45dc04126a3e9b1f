package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/cataloro/cataloro/internal/config"
)

const driverLibsql = "libsql"

// Store wraps the database backing the credential store and response cache.
type Store struct {
	DB     *sql.DB
	driver string
}

// Open connects to the configured database. Only the libsql driver is
// supported; it covers both local files and remote Turso URLs.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = driverLibsql
	}
	if driver != driverLibsql {
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	dsn, local, err := buildLibsqlDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverLibsql, dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql store: %w", err)
	}

	if local {
		if err := applyLocalSettings(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping libsql store: %w", err)
	}

	return &Store{DB: db, driver: driver}, nil
}

// applyLocalSettings tunes a file-backed database for a single CLI process:
// one connection so session pragmas stick, WAL for concurrent readers, and a
// busy timeout instead of immediate SQLITE_BUSY failures.
func applyLocalSettings(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply local store settings: %w", err)
		}
	}
	return nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// preflight rejects calls on an unopened store and normalizes a nil ctx.
// Safe on a nil receiver, so exported methods can call it first thing.
func (s *Store) preflight(ctx context.Context) (context.Context, error) {
	if s == nil || s.DB == nil {
		return ctx, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, nil
}

// Driver returns the configured store driver.
func (s *Store) Driver() string {
	if s == nil {
		return ""
	}
	return s.driver
}

// buildLibsqlDSN picks the connection string from config. An explicit URL
// is treated as remote and carries the auth token; everything else
// resolves through the path field.
func buildLibsqlDSN(cfg config.StoreConfig) (string, bool, error) {
	if remote := strings.TrimSpace(cfg.URL); remote != "" {
		dsn, err := withAuthToken(remote, cfg.AuthToken)
		return dsn, false, err
	}
	return pathDSN(strings.TrimSpace(cfg.Path))
}

// pathDSN maps the path field to a DSN and reports whether it names a
// local database. ":memory:" counts as local; a libsql: scheme in the
// path slot still means remote.
func pathDSN(path string) (string, bool, error) {
	switch {
	case path == "":
		return "", false, errors.New("store path or url is required")

	case path == ":memory:":
		return path, true, nil

	case strings.HasPrefix(path, "libsql:"):
		return path, false, nil

	case strings.HasPrefix(path, "file:"):
		onDisk, err := filePathFromDSN(path)
		if err != nil {
			return "", false, err
		}
		if err := ensureParentDir(onDisk); err != nil {
			return "", false, err
		}
		return path, true, nil

	default:
		if err := ensureParentDir(path); err != nil {
			return "", false, err
		}
		return "file:" + filepath.Clean(path), true, nil
	}
}

// withAuthToken appends the Turso auth token as a query parameter unless
// the DSN already carries one.
func withAuthToken(dsn, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return dsn, nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}

	query := parsed.Query()
	if query.Get("authToken") == "" {
		query.Set("authToken", token)
		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

// filePathFromDSN recovers the on-disk path from a file: DSN so the
// parent directory can be created before sql.Open touches it.
func filePathFromDSN(dsn string) (string, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store path: %w", err)
	}

	if parsed.Path != "" {
		return strings.TrimPrefix(parsed.Path, "//"), nil
	}
	return strings.TrimPrefix(parsed.Opaque, "//"), nil
}

func ensureParentDir(path string) error {
	if strings.TrimSpace(path) == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}

	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}
