package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storecart/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"APP_ENV":              "",
		"PORT":                 "",
		"REDIS_URL":            "",
		"CURRENCY_CODE":        "",
		"CART_TTL":             "",
		"RATE_LIMIT_MAX":       "",
		"OBS_ENABLE_TRACING":   "",
		"CORS_ALLOWED_ORIGINS": "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.False(t, cfg.RedisEnabled())
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, 168*time.Hour, cfg.CartTTL)
	require.Equal(t, 120, cfg.RateLimitMax)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.False(t, cfg.Obs.EnableTracing)
	require.True(t, cfg.Obs.EnablePrometheus)
	require.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"PORT":                 ":9090",
		"REDIS_URL":            "redis://localhost:6379/0",
		"CURRENCY_CODE":        "eur",
		"CART_TTL":             "2h",
		"CATALOG_CACHE_TTL":    "not-a-duration",
		"RATE_LIMIT_MAX":       "10",
		"CORS_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"OBS_ENABLE_TRACING":   "yes",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.RedisEnabled())
	require.Equal(t, "EUR", cfg.CurrencyCode)
	require.Equal(t, 2*time.Hour, cfg.CartTTL)
	require.Equal(t, 60*time.Second, cfg.CatalogCacheTTL)
	require.Equal(t, 10, cfg.RateLimitMax)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.Obs.EnableTracing)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"CURRENCY_CODE": "dollars"})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"RATE_LIMIT_MAX": "-1"})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"CART_TTL": "-5m"})
	require.Error(t, err)
}
