package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/city-distance-service/internal/adapter/http"
	"github.com/couchcryptid/city-distance-service/internal/adapter/geoapify"
	kafkaadapter "github.com/couchcryptid/city-distance-service/internal/adapter/kafka"
	"github.com/couchcryptid/city-distance-service/internal/adapter/mapbox"
	"github.com/couchcryptid/city-distance-service/internal/config"
	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/observability"
	"github.com/couchcryptid/city-distance-service/internal/search"
	"github.com/couchcryptid/city-distance-service/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var client domain.PlaceSearcher
	switch cfg.GeocoderProvider {
	case config.ProviderMapbox:
		client = mapbox.NewClient(cfg.MapboxToken, cfg.GeocoderTimeout, cfg.GeocoderResultLimit, logger)
	default:
		client = geoapify.NewClient(cfg.GeoapifyAPIKey, cfg.GeocoderTimeout, cfg.GeocoderResultLimit, logger)
	}
	searcher := search.NewRateLimited(
		search.NewInstrumented(client, cfg.GeocoderProvider, metrics, logger),
		cfg.GeocoderProvider, cfg.GeocoderRateLimit, cfg.GeocoderRateBurst,
	)
	logger.Info("geocoding provider configured",
		"provider", cfg.GeocoderProvider,
		"timeout", cfg.GeocoderTimeout,
		"rate_limit", cfg.GeocoderRateLimit,
	)

	// Event publishing is feature-flagged via KAFKA_BROKERS.
	var writer *kafkaadapter.Writer
	var publisher session.Publisher
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = writer
		logger.Info("distance event publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("distance event publishing disabled")
	}

	sessions := session.NewManager(session.Config{
		Searcher:  searcher,
		Algorithm: cfg.DistanceAlgorithm,
		Fallback:  cfg.DistanceFallback,
		Debounce:  cfg.AutocompleteDebounce,
		Capacity:  cfg.SessionCacheSize,
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, sessions, cfg.DistanceAlgorithm, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sessions.Close()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
