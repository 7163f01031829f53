package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// Production OpenWeatherMap endpoints.
const (
	DefaultWeatherURL   = "https://api.openweathermap.org/data/2.5/weather"
	DefaultForecastURL  = "https://api.openweathermap.org/data/2.5/forecast"
	DefaultGeocodingURL = "https://api.openweathermap.org/geo/1.0/direct"
)

// DefaultTimeout bounds every upstream call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// upstream is an HTTP client guarded by a circuit breaker. It makes exactly
// one request per call; there are no retries.
type upstream struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func newUpstream(name string, timeout time.Duration, log *slog.Logger) *upstream {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		// 4xx answers and caller cancellations say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var we *Error
			return errors.As(err, &we) && we.Status >= 400 && we.Status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("upstream circuit breaker state changed", "upstream", name, "from", from.String(), "to", to.String())
		},
	})

	return &upstream{
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
	}
}

// get performs a GET against endpoint with the given query and decodes the
// JSON response into dst. All failures come back as *Error.
func (u *upstream) get(ctx context.Context, endpoint string, query url.Values, dst any) error {
	_, err := u.breaker.Execute(func() (interface{}, error) {
		return nil, doGet(ctx, u.client, endpoint, query, dst)
	})
	if err != nil {
		return transportError(err)
	}
	return nil
}

// doGet performs a GET request and decodes the JSON response into dst.
// Error messages name the endpoint only, never the query string.
func doGet(ctx context.Context, client *http.Client, endpoint string, query url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", endpoint, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return nil
}

// ---- Geocoding ----

// GeoClient resolves city names through OpenWeatherMap direct geocoding.
type GeoClient struct {
	apiKey  string
	baseURL string
	up      *upstream
}

// NewGeoClient constructs a GeoClient. An empty baseURL selects DefaultGeocodingURL.
func NewGeoClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *GeoClient {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	return &GeoClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		up:      newUpstream("openweathermap-geocoding", timeout, log),
	}
}

type owmGeoEntry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Resolve returns the coordinates of the best match for city, or a
// KindNotFound error when upstream has no match.
func (c *GeoClient) Resolve(ctx context.Context, city string) (Coordinates, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)

	var raw []owmGeoEntry
	if err := c.up.get(ctx, c.baseURL, q, &raw); err != nil {
		return Coordinates{}, err
	}

	if len(raw) == 0 {
		return Coordinates{}, NotFound(city)
	}

	return Coordinates{Lat: raw[0].Lat, Lon: raw[0].Lon}, nil
}

// ---- Current weather and forecast ----

// WeatherClient fetches current conditions and 3-hour forecasts from OpenWeatherMap.
type WeatherClient struct {
	apiKey      string
	weatherURL  string
	forecastURL string
	up          *upstream
}

// NewWeatherClient constructs a WeatherClient. Empty URLs select the production defaults.
func NewWeatherClient(weatherURL, forecastURL, apiKey string, timeout time.Duration, log *slog.Logger) *WeatherClient {
	if weatherURL == "" {
		weatherURL = DefaultWeatherURL
	}
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	return &WeatherClient{
		apiKey:      apiKey,
		weatherURL:  weatherURL,
		forecastURL: forecastURL,
		up:          newUpstream("openweathermap", timeout, log),
	}
}

type owmCurrentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity *int    `json:"humidity"`
	} `json:"main"`
	Weather []owmCondition `json:"weather"`
	Wind    struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

type owmCondition struct {
	Description string `json:"description"`
}

type owmForecastResponse struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
}

func firstDescription(conds []owmCondition) string {
	if len(conds) == 0 {
		return ""
	}
	return conds[0].Description
}

// CurrentByCity retrieves current conditions for the given free-text city name.
// The returned City is upstream's canonical name, not the caller's input.
func (c *WeatherClient) CurrentByCity(ctx context.Context, city string) (*Snapshot, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	var raw owmCurrentResponse
	if err := c.up.get(ctx, c.weatherURL, q, &raw); err != nil {
		return nil, err
	}

	return &Snapshot{
		City:        raw.Name,
		Temperature: raw.Main.Temp,
		Description: firstDescription(raw.Weather),
		Humidity:    raw.Main.Humidity,
		WindSpeed:   raw.Wind.Speed,
	}, nil
}

// ForecastByCoordinates retrieves the 5-day series of 3-hour samples in upstream order.
func (c *WeatherClient) ForecastByCoordinates(ctx context.Context, coords Coordinates) ([]Sample, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	var raw owmForecastResponse
	if err := c.up.get(ctx, c.forecastURL, q, &raw); err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(raw.List))
	for _, item := range raw.List {
		samples = append(samples, Sample{
			Timestamp:   item.DtTxt,
			Temperature: item.Main.Temp,
			Description: firstDescription(item.Weather),
		})
	}

	return samples, nil
}
