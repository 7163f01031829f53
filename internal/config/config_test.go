package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weather-proxy/internal/config"
	"github.com/neexbeast/weather-proxy/internal/weather"
)

// clearEnv blanks every variable Load reads so the host environment can't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "OPENWEATHERMAP_API_KEY", "REDIS_URL", "SERVER_HOST", "SERVER_PORT",
		"APP_ENV", "UPSTREAM_TIMEOUT", "OPENWEATHER_WEATHER_URL", "OPENWEATHER_FORECAST_URL",
		"OPENWEATHER_GEOCODING_URL",
	} {
		t.Setenv(k, "")
	}
	// Run from an empty directory so no stray .env is picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHERMAP_API_KEY", "k")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "localhost:3000", cfg.ListenAddr())
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, weather.DefaultForecastURL, cfg.ForecastURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHERMAP_API_KEY", "k")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHERMAP_API_KEY")
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHERMAP_API_KEY", "k")
	t.Setenv("SERVER_PORT", "abc")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHERMAP_API_KEY", "k")
	t.Setenv("UPSTREAM_TIMEOUT", "soon")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"api_key: from-file\nport: 9090\nupstream_timeout: 5s\nforecast_url: http://upstream.local/forecast\n",
	), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, 9191, cfg.Port, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "http://upstream.local/forecast", cfg.ForecastURL)
	assert.Equal(t, weather.DefaultWeatherURL, cfg.WeatherURL)
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHERMAP_API_KEY", "k")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("OPENWEATHERMAP_API_KEY=from-dotenv\n"), 0o600))
	// godotenv never overrides variables that already exist, even empty ones.
	require.NoError(t, os.Unsetenv("OPENWEATHERMAP_API_KEY"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.APIKey)
}
