package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/seismic-map/internal/adapter/dataset"
	"github.com/couchcryptid/seismic-map/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/seismic-map/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-map/internal/adapter/usgs"
	"github.com/couchcryptid/seismic-map/internal/config"
	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/mapview"
	"github.com/couchcryptid/seismic-map/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	styles, err := config.LoadStyles(cfg.LayerStylesPath)
	if err != nil {
		logger.Error("failed to load layer styles", "error", err)
		os.Exit(1)
	}
	opts, err := mapview.OptionsFromConfig(cfg, styles)
	if err != nil {
		logger.Error("invalid map options", "error", err)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()
	client := usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger, metrics)
	fetcher := usgs.NewCachedFetcher(client, cfg.FeedCacheSize, clock, metrics)

	// Change notifications are feature-flagged via KAFKA_ENABLED.
	var (
		publisher mapview.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("change notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("change notifications disabled")
	}

	m := mapview.New(opts, clock, logger, metrics)
	loop := mapview.NewLoop(m, fetcher, publisher, clock, cfg.FrameInterval, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, loop, loop, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil {
			logger.Error("map loop error", "error", err)
		}
	}()

	continents := dataset.Source{Layer: domain.LayerContinents, Path: cfg.ContinentsPath, KeyProperty: cfg.ContinentsKey}
	plates := dataset.Source{Layer: domain.LayerPlates, Path: cfg.PlatesPath, KeyProperty: cfg.PlatesKey}
	if err := loop.LoadInitial(ctx, continents, plates); err != nil {
		logger.Error("initial render failed", "error", err)
		stop()
		<-loopDone
		os.Exit(1) //nolint:gocritic // loop already drained
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	<-loopDone
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
