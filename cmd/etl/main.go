package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fire-hotspot-etl/internal/adapter/firms"
	httpadapter "github.com/couchcryptid/fire-hotspot-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fire-hotspot-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fire-hotspot-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/fire-hotspot-etl/internal/config"
	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/couchcryptid/fire-hotspot-etl/internal/pipeline"
	"github.com/couchcryptid/fire-hotspot-etl/internal/store"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env is normal in containers; the environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, mapbox.CacheOptions{
			Size:  cfg.MapboxCacheSize,
			TTL:   cfg.MapboxCacheTTL,
			Clock: clock,
		}, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_size", cfg.MapboxCacheSize,
			"cache_ttl", cfg.MapboxCacheTTL,
			"timeout", cfg.MapboxTimeout,
		)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	extractor, extractorCloser := newExtractor(cfg, clock, metrics, logger)

	snapshot := store.New(cfg.SnapshotRetention(), clock, metrics, logger)
	var writer *kafkaadapter.Writer
	loaders := []pipeline.NamedLoader{{Name: "store", Loader: snapshot}}
	if cfg.KafkaSinkEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, pipeline.NamedLoader{Name: "kafka", Loader: writer})
	}
	loader := pipeline.NewMultiLoader(loaders...)
	logger.Info("loaders configured", "loaders", loader.Names())

	transformer := pipeline.NewTransformer(domain.DefaultClassifier(), geocoder, metrics, logger)
	p := pipeline.New(extractor, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, snapshot, domain.DefaultClassifier(), httpadapter.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPM:       cfg.RateLimitRPM,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
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
	if err := extractorCloser.Close(); err != nil {
		logger.Error("extractor close error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newExtractor builds the configured ingest source.
func newExtractor(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) (pipeline.BatchExtractor, io.Closer) {
	switch cfg.IngestSource {
	case config.SourceKafka:
		reader := kafkaadapter.NewReader(cfg, logger)
		logger.Info("ingesting from kafka", "topic", cfg.KafkaSourceTopic, "group_id", cfg.KafkaGroupID)
		return reader, reader
	default:
		client := firms.NewClient(cfg, metrics, logger)
		poller := firms.NewPoller(client, firms.PollerConfig{
			Source:        cfg.FIRMSSource,
			Interval:      cfg.FIRMSPollInterval,
			FlushInterval: cfg.BatchFlushInterval,
			Clock:         clock,
		}, metrics, logger)
		logger.Info("ingesting from firms",
			"source", cfg.FIRMSSource,
			"area", cfg.FIRMSArea,
			"day_range", cfg.FIRMSDayRange,
			"poll_interval", cfg.FIRMSPollInterval,
		)
		return poller, nopCloser{}
	}
}
