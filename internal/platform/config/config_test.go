package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, val) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t,
		"APP_ENV", "HTTP_PORT", "PORT", "WEB_FETCH_TIMEOUT", "VK_API_BASE_URL", "VK_API_VERSION",
		"VK_ACCESS_TOKEN", "VK_SERVICE_KEY", "VK_BATCH_MAX_COUNT", "DEFAULT_TITLE", "POSTGRES_DSN",
		"DATABASE_URL", "API_RATE_PER_MINUTE",
	)

	cfg, err := Load()
	require.NoError(t, err)

	require.True(t, cfg.IsLocal())
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, 60, cfg.HTTP.RatePerMinute)
	require.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, "https://api.vk.ru/method", cfg.VK.APIBaseURL)
	require.Equal(t, "5.199", cfg.VK.APIVersion)
	require.Empty(t, cfg.VK.AccessToken)
	require.Equal(t, 100, cfg.VK.BatchMaxCount)
	require.Equal(t, "Новости", cfg.Output.DefaultTitle)
	require.False(t, cfg.StorageEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("VK_ACCESS_TOKEN", "token-from-env")
	t.Setenv("WEB_FETCH_TIMEOUT", "3s")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/postmeta")
	t.Setenv("MEDIA_MAX_ITEMS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	require.False(t, cfg.IsLocal())
	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Equal(t, "token-from-env", cfg.VK.AccessToken)
	require.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	require.True(t, cfg.StorageEnabled())
	require.Equal(t, 5, cfg.Limits().MediaMaxItems)
}

func TestLoad_LegacyAliases(t *testing.T) {
	unsetEnv(t, "VK_ACCESS_TOKEN", "HTTP_PORT", "POSTGRES_DSN")
	t.Setenv("VK_SERVICE_KEY", "legacy-key")
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://legacy/db")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "legacy-key", cfg.VK.AccessToken)
	require.Equal(t, 3000, cfg.HTTP.Port)
	require.Equal(t, "postgres://legacy/db", cfg.Database.PostgresDSN)
}

func TestLoad_CurrentNameBeatsAlias(t *testing.T) {
	t.Setenv("VK_ACCESS_TOKEN", "current")
	t.Setenv("VK_SERVICE_KEY", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "current", cfg.VK.AccessToken)
}

func TestLoad_InvalidNumeric(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}

func TestLimits_FillsDefaults(t *testing.T) {
	cfg := &Config{Output: OutputConfig{TitleMaxChars: 50}}

	limits := cfg.Limits()

	require.Equal(t, 50, limits.TitleMaxChars)
	require.Equal(t, 255, limits.DescriptionMaxChars)
	require.Equal(t, 15, limits.MediaMaxItems)
	require.Equal(t, "Новости", limits.DefaultTitle)
}
