package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/atelier-console/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	for _, name := range []string{"PORT", "ENV", "BACKEND_URL", "BACKEND_TIMEOUT", "SESSION_BACKEND", "SESSION_SECRET", "REMEMBER_ME_DAYS", "EPHEMERAL_TTL", "ALLOWED_ORIGINS"} {
		t.Setenv(name, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8000/api", c.GetBackendURL())
	require.Equal(t, 5*time.Second, c.GetBackendTimeout())
	require.Equal(t, config.SessionBackendCookie, c.GetSessionBackend())
	require.False(t, c.IsSessionSecretSet())
	require.Equal(t, 30*24*time.Hour, c.GetRememberMeDuration())
	require.Equal(t, 12*time.Hour, c.GetEphemeralTTL())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("BACKEND_URL", "https://maintenance.example/api/")
	t.Setenv("BACKEND_TIMEOUT", "750ms")
	t.Setenv("REMEMBER_ME_DAYS", "7")
	t.Setenv("EPHEMERAL_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,,")
	c := config.New()

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://maintenance.example/api", c.GetBackendURL())
	require.Equal(t, 750*time.Millisecond, c.GetBackendTimeout())
	require.Equal(t, 7*24*time.Hour, c.GetRememberMeDuration())
	require.Equal(t, 12*time.Hour, c.GetEphemeralTTL())

	origins := c.GetAllowedOrigins()
	require.Len(t, origins, 2)
	require.True(t, origins.IsAllowedOrigin("https://b.example"))
	require.False(t, origins.IsAllowedOrigin("http://localhost:3000"))
}

func TestConfig_SessionSecretIsGeneratedWhenUnset(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	c := config.New()

	secret := c.GetSessionSecret()
	require.Len(t, secret, 64)
	require.Equal(t, secret, c.GetSessionSecret())
	require.NotEqual(t, "dev-only-session-secret", secret)

	t.Setenv("SESSION_SECRET", "from-the-environment")
	require.True(t, c.IsSessionSecretSet())
	require.Equal(t, "from-the-environment", c.GetSessionSecret())
}

func TestConfig_SessionLifetimesArePositive(t *testing.T) {
	for _, days := range []string{"0", "-3"} {
		t.Setenv("REMEMBER_ME_DAYS", days)
		require.Equal(t, 24*time.Hour, config.New().GetRememberMeDuration(), "REMEMBER_ME_DAYS=%s", days)
	}

	t.Setenv("EPHEMERAL_TTL", "-5m")
	require.Equal(t, 12*time.Hour, config.New().GetEphemeralTTL())
}
