package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cataloro/cataloro/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.StoreConfig
		wantDSN string
		local   bool
		wantErr bool
	}{
		{
			name:    "remote URL gains the auth token",
			cfg:     config.StoreConfig{URL: "libsql://example.turso.io", AuthToken: "token123"},
			wantDSN: "libsql://example.turso.io?authToken=token123",
		},
		{
			name:    "existing query parameters survive",
			cfg:     config.StoreConfig{URL: "libsql://example.turso.io?foo=bar", AuthToken: "token123"},
			wantDSN: "libsql://example.turso.io?authToken=token123&foo=bar",
		},
		{
			name:    "file prefix passes through as local",
			cfg:     config.StoreConfig{Path: "file:./cataloro.db"},
			wantDSN: "file:./cataloro.db",
			local:   true,
		},
		{
			name:    "bare path becomes a file DSN",
			cfg:     config.StoreConfig{Path: "cataloro.db"},
			wantDSN: "file:cataloro.db",
			local:   true,
		},
		{
			name:    "memory path is local",
			cfg:     config.StoreConfig{Path: ":memory:"},
			wantDSN: ":memory:",
			local:   true,
		},
		{
			name:    "missing path and url is an error",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, local, err := buildLibsqlDSN(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantDSN, dsn)
			require.Equal(t, tc.local, local)
		})
	}
}

func TestPreflightRejectsUnopenedStore(t *testing.T) {
	var s *Store
	_, err := s.preflight(nil)
	require.Error(t, err)

	_, err = (&Store{}).preflight(nil)
	require.Error(t, err)
}

func TestCacheQueryValidate(t *testing.T) {
	require.Error(t, CacheQuery{}.Validate())
	require.NoError(t, CacheQuery{All: true}.Validate())
	require.NoError(t, CacheQuery{Endpoint: "/api/listings"}.Validate())
	require.NoError(t, CacheQuery{Prefix: "/api/"}.Validate())
	require.NoError(t, CacheQuery{Expired: true}.Validate())
}
