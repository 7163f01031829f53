package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/neexbeast/weather-proxy/internal/cache"
	"github.com/neexbeast/weather-proxy/internal/weather"
)

// Response sources.
const (
	sourceCache = "cache"
	sourceAPI   = "API"
)

type envelope struct {
	Source string `json:"source"`
	Data   any    `json:"data"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	cache   WeatherCache
	geo     Geocoder
	fetcher WeatherFetcher
	log     *slog.Logger
	debug   bool

	// flights coalesces concurrent cache misses for the same key.
	flights singleflight.Group
}

// NewHandlers constructs Handlers with all required dependencies. When debug
// is set, error bodies carry the full error chain.
func NewHandlers(cache WeatherCache, geo Geocoder, fetcher WeatherFetcher, log *slog.Logger, debug bool) *Handlers {
	return &Handlers{
		cache:   cache,
		geo:     geo,
		fetcher: fetcher,
		log:     log,
		debug:   debug,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is the single place errors become HTTP responses.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Message: err.Error()}

	var we *weather.Error
	if errors.As(err, &we) {
		status = we.Status
		body.Message = we.Message
		if h.debug {
			body.Kind = we.Kind.String()
		}
	}
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	if body.Message == "" {
		body.Message = "An unexpected error occurred."
	}
	if h.debug {
		body.Stack = errorChain(err)
	}

	writeJSON(w, status, body)
}

// errorChain renders the wrapped causes of err, outermost first.
func errorChain(err error) string {
	s := err.Error()
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		s += "\n  caused by: " + e.Error()
	}
	return s
}

// cityParam returns the decoded {city} route parameter. chi routes on
// RawPath when it is set, which leaves the parameter percent-encoded.
func cityParam(r *http.Request) string {
	city := chi.URLParam(r, "city")
	if r.URL.RawPath == "" {
		return city
	}
	if decoded, err := url.PathUnescape(city); err == nil {
		return decoded
	}
	return city
}

// GetCurrent handles GET /api/weather/current/{city}.
// Cache hit → return. Miss → upstream → cache (best-effort) → return.
func (h *Handlers) GetCurrent(w http.ResponseWriter, r *http.Request) {
	city := cityParam(r)
	key := cache.CurrentKey(city)

	var cached json.RawMessage
	if h.cache.Get(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, envelope{Source: sourceCache, Data: cached})
		return
	}

	v, err := h.coalesce(r.Context(), key, func(ctx context.Context) (any, error) {
		snap, err := h.fetcher.CurrentByCity(ctx, city)
		if err != nil {
			return nil, err
		}
		h.cache.Set(ctx, key, snap, cache.TTL)
		return snap, nil
	})
	if err != nil {
		h.log.Error("current weather fetch failed", "city", city, "err", err)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Source: sourceAPI, Data: v})
}

// GetForecast handles GET /api/weather/forecast/{city}.
// Cache hit → return. Miss → geocode → forecast → aggregate → cache (best-effort) → return.
func (h *Handlers) GetForecast(w http.ResponseWriter, r *http.Request) {
	city := cityParam(r)
	key := cache.ForecastKey(city)

	var cached json.RawMessage
	if h.cache.Get(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, envelope{Source: sourceCache, Data: cached})
		return
	}

	v, err := h.coalesce(r.Context(), key, func(ctx context.Context) (any, error) {
		coords, err := h.geo.Resolve(ctx, city)
		if err != nil {
			return nil, err
		}

		samples, err := h.fetcher.ForecastByCoordinates(ctx, coords)
		if err != nil {
			return nil, err
		}

		days := weather.Aggregate(samples)
		h.cache.Set(ctx, key, days, cache.TTL)
		return days, nil
	})
	if err != nil {
		h.log.Error("forecast fetch failed", "city", city, "err", err)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Source: sourceAPI, Data: v})
}

// coalesce runs fn once per key across concurrent callers. The shared call
// ignores caller cancellation; the upstream client timeout bounds it.
func (h *Handlers) coalesce(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := h.flights.DoChan(key, func() (v any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error("upstream fetch panicked", "key", key, "recover", rec)
				err = fmt.Errorf("fetch for %s panicked: %v", key, rec)
			}
		}()
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Root handles GET /.
func Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Weather Dashboard API is running!"})
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Message: "Not Found"})
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method Not Allowed"})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that reports cache connectivity.
// The cache is optional, so a failed ping yields "degraded" with status 200.
func HealthHandlerFunc(store pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, redisStatus := "ok", "ok"
		if err := store.Ping(ctx); err != nil {
			log.Warn("health check: redis ping failed", "err", err)
			status, redisStatus = "degraded", "error"
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status": status,
			"redis":  redisStatus,
		})
	}
}
