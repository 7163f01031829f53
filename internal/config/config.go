package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/neexbeast/weather-proxy/internal/weather"
)

// Config holds the settings for the weather proxy.
type Config struct {
	APIKey          string        `yaml:"api_key"`
	RedisURL        string        `yaml:"redis_url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Env             string        `yaml:"env"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	WeatherURL   string `yaml:"weather_url"`
	ForecastURL  string `yaml:"forecast_url"`
	GeocodingURL string `yaml:"geocoding_url"`
}

func defaults() Config {
	return Config{
		RedisURL:        "redis://localhost:6379",
		Host:            "localhost",
		Port:            3000,
		Env:             "development",
		UpstreamTimeout: weather.DefaultTimeout,
		WeatherURL:      weather.DefaultWeatherURL,
		ForecastURL:     weather.DefaultForecastURL,
		GeocodingURL:    weather.DefaultGeocodingURL,
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables (optionally from .env), in that order.
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	setString(&cfg.APIKey, "OPENWEATHERMAP_API_KEY")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.Host, "SERVER_HOST")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.WeatherURL, "OPENWEATHER_WEATHER_URL")
	setString(&cfg.ForecastURL, "OPENWEATHER_FORECAST_URL")
	setString(&cfg.GeocodingURL, "OPENWEATHER_GEOCODING_URL")

	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid SERVER_PORT: %s", portStr)
		}
		cfg.Port = port
	}

	if timeoutStr := os.Getenv("UPSTREAM_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		cfg.UpstreamTimeout = timeout
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) validate() error {
	if c.APIKey == "" {
		return errors.New("OpenWeatherMap API key is required (set OPENWEATHERMAP_API_KEY or api_key)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.RedisURL == "" {
		return errors.New("redis URL must not be empty")
	}
	return nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsProduction reports whether diagnostic detail should be withheld from responses.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
