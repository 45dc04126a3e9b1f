package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/core/store"
	"github.com/cataloro/cataloro/internal/dispatch"
	"github.com/cataloro/cataloro/internal/market"
	"github.com/cataloro/cataloro/internal/metrics"
	"github.com/cataloro/cataloro/internal/observability"
)

// buildDispatcher translates dispatch config into a Dispatcher. Each CLI
// invocation is one dispatcher session, so backoff state lives for the
// duration of the command.
func buildDispatcher(cfg *config.Config) *dispatch.Dispatcher {
	d := &dispatch.Dispatcher{
		MaxRetries: cfg.Dispatch.MaxRetries,
		BaseDelay:  cfg.Dispatch.BaseDelay,
		Logger:     observability.CLILogger,
	}
	if cfg.API.Timeout > 0 {
		d.Client = &http.Client{Timeout: cfg.API.Timeout}
	}
	if cfg.Dispatch.PaceRate > 0 {
		burst := cfg.Dispatch.PaceBurst
		if burst < 1 {
			burst = 1
		}
		d.Pacer = rate.NewLimiter(rate.Limit(cfg.Dispatch.PaceRate), burst)
	}
	return d
}

// newMarketClient builds a marketplace client from the effective config and
// the stored API token. With requireToken, a missing token fails with a hint
// to log in instead of producing a 401 upstream.
func newMarketClient(ctx context.Context, db *store.Store, requireToken bool) (*market.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	token := ""
	if db != nil {
		token, err = db.GetCredential(ctx, store.TokenKey)
		if err != nil {
			return nil, nil, err
		}
	}
	if requireToken && strings.TrimSpace(token) == "" {
		return nil, nil, fmt.Errorf("not logged in (run '%s login' first)", binaryName())
	}

	client := market.New(cfg.API.BaseURL, token)
	client.UserAgent = cfg.API.UserAgent
	client.Dispatcher = buildDispatcher(cfg)
	return client, cfg, nil
}

func binaryName() string {
	if appIdentity != nil && appIdentity.BinaryName != "" {
		return appIdentity.BinaryName
	}
	return filepath.Base(os.Args[0])
}

// cachedJSON serves list-style command results from the local response cache
// when caching is enabled. The key is the full request path including the
// query; the endpoint column groups entries the same way backoff keys do.
func cachedJSON[T any](ctx context.Context, db *store.Store, cfg *config.Config, path string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if db == nil || cfg == nil || !cfg.Cache.Enabled {
		return fetch(ctx)
	}

	endpoint := dispatch.EndpointKey(path)

	if cached, err := db.GetCachedResponse(ctx, path); err == nil && cached != nil {
		var value T
		if err := json.Unmarshal(cached.Body, &value); err == nil {
			metrics.RecordCacheLookup(endpoint, true)
			if logger := observability.CLILogger; logger != nil {
				logger.Debug("Serving response from cache",
					zap.String("endpoint", endpoint),
					zap.Time("expires_at", cached.ExpiresAt))
			}
			return value, nil
		}
	}
	metrics.RecordCacheLookup(endpoint, false)

	value, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if body, err := json.Marshal(value); err == nil {
		if err := db.SetCachedResponse(ctx, path, endpoint, http.StatusOK, body, ttl); err != nil {
			if logger := observability.CLILogger; logger != nil {
				logger.Debug("Response cache write failed", zap.Error(err))
			}
		}
	}
	return value, nil
}
