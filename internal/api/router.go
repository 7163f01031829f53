package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds and returns the Chi router with all routes configured.
func NewRouter(handlers *Handlers, store pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(Recover(log))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", Root)
	r.Get("/api/health", HealthHandlerFunc(store, log))

	r.Route("/api/weather", func(r chi.Router) {
		r.Get("/current/{city}", handlers.GetCurrent)
		r.Get("/forecast/{city}", handlers.GetForecast)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
