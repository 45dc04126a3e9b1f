package appid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	identity, err := Get()
	require.NoError(t, err)
	require.NotNil(t, identity)

	require.Equal(t, "cataloro", identity.BinaryName)
	require.Equal(t, "cataloro", identity.ConfigName)
	require.Equal(t, "CATALORO", identity.EnvPrefix)
	require.NotEmpty(t, identity.Vendor)
	require.NotEmpty(t, identity.Description)
	require.NotEmpty(t, identity.TelemetryNamespace)
}

func TestGetIsStable(t *testing.T) {
	first, err := Get()
	require.NoError(t, err)

	second, err := Get()
	require.NoError(t, err)
	require.Same(t, first, second, "identity is decoded once and shared")
}
