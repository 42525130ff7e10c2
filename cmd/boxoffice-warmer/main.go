package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/boxoffice/pkg/analytics"
	"github.com/platinummonkey/boxoffice/pkg/cache"
	"github.com/platinummonkey/boxoffice/pkg/config"
	"github.com/platinummonkey/boxoffice/pkg/observability"
	"github.com/platinummonkey/boxoffice/pkg/storage/postgres"
)

var (
	runOnce  = flag.Bool("run-once", false, "Warm the cache once and exit")
	schedule = flag.String("schedule", "", "Cron schedule override (default: BOXOFFICE_WARMER_SCHEDULE)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).WithField("component", "warmer")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracing(ctx, cfg.TracingConfig(), logger)
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = observability.ShutdownTracing(shutdownCtx, tp, logger)
	}()

	db, err := postgres.Open(postgres.Config{
		URL:         cfg.Database.URL,
		ReplicaURLs: postgres.ParseReplicaURLs(cfg.Database.ReplicaURLs),
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     cfg.Database.Timeout,
	}, logger.FieldLogger())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	store, err := openCache(cfg.Cache)
	if err != nil {
		logger.WithError(err).Error("Failed to open cache")
		os.Exit(1)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	aggregator := analytics.NewKpiAggregator(postgres.NewRepositories(db), store, logger.FieldLogger(), metrics)
	warmer := NewWarmer(postgres.NewStoreRepository(db), aggregator, cfg.Warmer.Currencies, cfg.Warmer.Concurrency, logger, metrics)

	if *runOnce {
		if err := warmer.Run(ctx); err != nil {
			logger.WithError(err).Error("Cache warm failed")
			os.Exit(1)
		}
		return
	}

	router := mux.NewRouter()
	observability.RegisterMetricsEndpoint(router, registry)
	observability.RegisterHealthRoutes(router, observability.NewHealthChecker(cfg.Observability.OTelServiceVersion).
		AddCritical("database", db).
		AddCritical("cache", store))

	server := &http.Server{
		Addr:              cfg.Warmer.MetricsAddr,
		Handler:           otelhttp.NewHandler(router, "boxoffice-warmer"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		defer observability.RecoverPanic(logger, "metrics server")
		logger.Infof("Serving metrics on %s", cfg.Warmer.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server failed")
		}
	}()

	spec := cfg.Warmer.Schedule
	if *schedule != "" {
		spec = *schedule
	}

	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		defer observability.RecoverPanic(logger, "warmer run")
		if err := warmer.Run(ctx); err != nil {
			logger.WithError(err).Warn("Cache warm failed")
		}
	})
	if err != nil {
		logger.WithError(err).Errorf("Invalid warmer schedule %q", spec)
		os.Exit(1)
	}

	c.Start()
	logger.Infof("Cache warmer started with schedule %s", spec)

	shutdown := observability.NewShutdownManager(logger, server, 30*time.Second)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		select {
		case <-c.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err := shutdown.WaitForShutdown(ctx); err != nil {
		logger.WithError(err).Warn("Shutdown incomplete")
	}
	logger.Info("Cache warmer stopped")
}

// openCache connects to the shared cache. An in-process cache would be
// invisible to report processes, so only redis is accepted.
func openCache(cfg config.CacheConfig) (*cache.RedisStore, error) {
	if cfg.Backend != "redis" {
		return nil, fmt.Errorf("warmer requires the redis cache backend, got %q", cfg.Backend)
	}
	return cache.NewRedisStore(cache.RedisConfig{
		URL:       cfg.RedisURL,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		PoolSize:  cfg.RedisPoolSize,
		KeyPrefix: cfg.KeyPrefix,
	})
}
