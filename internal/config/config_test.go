package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-guard-companion/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.New()
	require.Equal(t, []string{"SECURITY", "ADMIN"}, c.GetAllowedRoles())
	require.Equal(t, 500*time.Millisecond, c.GetRefreshDebounce())
	require.Equal(t, "http://localhost:3000", c.GetAPIURL())
	require.Equal(t, "file", c.GetStorageBackend())
}

func TestSocketURLStripsAPISuffix(t *testing.T) {
	t.Setenv("API_URL", "https://visits.example.com/api/")
	require.Equal(t, "https://visits.example.com/api", config.New().GetAPIURL())
	require.Equal(t, "https://visits.example.com", config.New().GetSocketURL())

	t.Setenv("SOCKET_URL", "wss://rt.example.com/")
	require.Equal(t, "wss://rt.example.com", config.New().GetSocketURL())
}

func TestAllowedRolesAreNormalised(t *testing.T) {
	t.Setenv("ALLOWED_ROLES", " security, ,admin ,supervisor")
	require.Equal(t, []string{"SECURITY", "ADMIN", "SUPERVISOR"}, config.New().GetAllowedRoles())
}

func TestDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("REFRESH_DEBOUNCE", "soon")
	require.Equal(t, 500*time.Millisecond, config.New().GetRefreshDebounce())

	t.Setenv("REFRESH_DEBOUNCE", "250ms")
	require.Equal(t, 250*time.Millisecond, config.New().GetRefreshDebounce())
}

func TestPlatform(t *testing.T) {
	t.Setenv("PLATFORM", "WEB")
	require.Equal(t, config.PlatformWeb, config.New().GetPlatform())
	require.False(t, config.New().GetPlatform().IsNative())
	require.True(t, config.PlatformAndroid.IsNative())
}
