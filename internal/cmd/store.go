package cmd

import (
	"context"
	"fmt"

	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/core/store"
)

// openStore loads configuration, opens the libsql store, and brings the
// schema up to date. Callers own the returned store and must Close it.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
