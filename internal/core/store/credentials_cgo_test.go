//go:build cgo

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentialRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	value, err := s.GetCredential(ctx, TokenKey)
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, s.SetCredential(ctx, TokenKey, "token-one"))

	value, err = s.GetCredential(ctx, TokenKey)
	require.NoError(t, err)
	require.Equal(t, "token-one", value)

	require.NoError(t, s.SetCredential(ctx, TokenKey, "token-two"))

	value, err = s.GetCredential(ctx, TokenKey)
	require.NoError(t, err)
	require.Equal(t, "token-two", value)

	existed, err := s.DeleteCredential(ctx, TokenKey)
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = s.DeleteCredential(ctx, TokenKey)
	require.NoError(t, err)
	require.False(t, existed)

	value, err = s.GetCredential(ctx, TokenKey)
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestCredentialValidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.GetCredential(ctx, "  ")
	require.Error(t, err)

	require.Error(t, s.SetCredential(ctx, "", "value"))
	require.Error(t, s.SetCredential(ctx, TokenKey, ""))
}
