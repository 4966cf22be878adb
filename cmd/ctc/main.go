package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/cold-temp-correction/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cold-temp-correction/internal/adapter/kafka"
	"github.com/couchcryptid/cold-temp-correction/internal/adapter/metno"
	"github.com/couchcryptid/cold-temp-correction/internal/catalog"
	"github.com/couchcryptid/cold-temp-correction/internal/config"
	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	"github.com/couchcryptid/cold-temp-correction/internal/observability"
	"github.com/couchcryptid/cold-temp-correction/internal/pipeline"
	"github.com/couchcryptid/cold-temp-correction/internal/reference"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	airports, err := reference.Load(cfg.ReferenceFile)
	if err != nil {
		logger.Error("failed to load reference data", "error", err, "file", cfg.ReferenceFile)
		os.Exit(1)
	}

	cat, err := catalog.Build(ctx, airports, cfg.TableCacheSize, metrics, logger)
	if err != nil {
		logger.Error("failed to build correction tables", "error", err)
		os.Exit(1)
	}

	client := metno.NewClient(cfg.ReportFeedURL, domain.Identifiers(airports), cfg.ReportUserAgent, cfg.ReportFeedTimeout, metrics, logger)

	// Kafka publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.ViewPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	refresher := pipeline.New(client, cat, publisher, clockwork.NewRealClock(), cfg.ReportRefreshInterval, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, refresher, refresher, cat, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start report refresher.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("refresher did not stop before shutdown timeout")
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
