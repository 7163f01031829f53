package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neexbeast/weather-proxy/internal/api"
	"github.com/neexbeast/weather-proxy/internal/cache"
	"github.com/neexbeast/weather-proxy/internal/config"
	"github.com/neexbeast/weather-proxy/internal/weather"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	// Connect to Redis. An unreachable store only disables caching.
	redisClient, err := cache.Connect(ctx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Wire dependencies.
	cacheLayer := cache.NewCache(redisClient, log)
	geo := weather.NewGeoClient(cfg.GeocodingURL, cfg.APIKey, cfg.UpstreamTimeout, log)
	fetcher := weather.NewWeatherClient(cfg.WeatherURL, cfg.ForecastURL, cfg.APIKey, cfg.UpstreamTimeout, log)
	handlers := api.NewHandlers(cacheLayer, geo, fetcher, log, !cfg.IsProduction())

	router := api.NewRouter(handlers, cacheLayer, log)

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.UpstreamTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}
