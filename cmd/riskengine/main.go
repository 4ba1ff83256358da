package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/weather-risk-engine/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-risk-engine/internal/adapter/kafka"
	"github.com/couchcryptid/weather-risk-engine/internal/adapter/weather"
	"github.com/couchcryptid/weather-risk-engine/internal/config"
	"github.com/couchcryptid/weather-risk-engine/internal/fetch"
	"github.com/couchcryptid/weather-risk-engine/internal/observability"
	"github.com/couchcryptid/weather-risk-engine/internal/pipeline"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
	"github.com/couchcryptid/weather-risk-engine/internal/risk"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := policy.Open(cfg.PolicyFile)
	if err != nil {
		logger.Error("failed to load policy", "path", cfg.PolicyFile, "error", err)
		os.Exit(1)
	}
	logger.Info("policy loaded", "path", cfg.PolicyFile)

	// Weather sources: primary with bounded retry, optional fallback provider.
	primary := weather.NewPrimaryClient(cfg.PrimaryURL, cfg.FetchTimeout, logger, metrics)
	var secondary fetch.Source
	if cfg.FallbackEnabled() {
		secondary = weather.NewProviderClient(cfg.FallbackURL, cfg.FallbackKey, cfg.FetchTimeout, logger, metrics)
		logger.Info("fallback weather provider enabled", "url", cfg.FallbackURL)
	} else {
		logger.Info("fallback weather provider disabled", "reason", "WEATHER_FALLBACK_KEY not set")
	}
	fetcher := fetch.New(primary, secondary, fetch.RetryPolicy{
		MaxRetries: cfg.FetchMaxRetries,
		Delay:      cfg.FetchRetryDelay,
	}, logger, metrics)

	freshness := risk.NewFreshness(nil, cfg.CacheTTL)
	source := weather.NewCachedSource(fetcher, freshness, cfg.CacheSize, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		if err := kafkaadapter.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaSinkTopic, 1); err != nil {
			logger.Warn("could not ensure sink topic", "topic", cfg.KafkaSinkTopic, "error", err)
		}
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(source, store, freshness, publisher, logger, metrics, pipeline.Options{
		Locations: cfg.Locations,
		Interval:  cfg.EvaluationInterval,
		Assessor:  cfg.Assessor,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger, metrics)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduled evaluations.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
