package api

import (
	"context"
	"time"

	"github.com/neexbeast/weather-proxy/internal/weather"
)

// WeatherCache defines the cache operations needed by handlers.
// Implementations absorb store failures; Get reports false on any problem.
type WeatherCache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, city string) (weather.Coordinates, error)
}

// WeatherFetcher retrieves current conditions and raw forecast samples.
type WeatherFetcher interface {
	CurrentByCity(ctx context.Context, city string) (*weather.Snapshot, error)
	ForecastByCoordinates(ctx context.Context, coords weather.Coordinates) ([]weather.Sample, error)
}
