package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/boxoffice/pkg/analytics"
	"github.com/platinummonkey/boxoffice/pkg/cache"
	"github.com/platinummonkey/boxoffice/pkg/config"
	"github.com/platinummonkey/boxoffice/pkg/contextkeys"
	"github.com/platinummonkey/boxoffice/pkg/observability"
	"github.com/platinummonkey/boxoffice/pkg/rbac"
	"github.com/platinummonkey/boxoffice/pkg/storage/postgres"
)

var (
	actorID     = flag.Int64("actor", 0, "Id of the user running the report")
	scopeFlag   = flag.String("scope", "vendor", "Report scope: vendor or admin")
	storesFlag  = flag.String("stores", "", "Comma-separated store ids (admin scope only)")
	metricFlag  = flag.String("metric", "net_revenue", "Metric to report")
	startFlag   = flag.Int64("start", 0, "Window start as unix seconds")
	endFlag     = flag.Int64("end", 0, "Window end (or as-of time) as unix seconds")
	currency    = flag.String("currency", "", "ISO 4217 currency code, required for money metrics")
	last30Days  = flag.Bool("last-30-days", false, "Use the 30 days ending at the current minute as the window")
	listMetrics = flag.Bool("list-metrics", false, "Print the metric catalog and exit")
)

func main() {
	flag.Parse()

	if *listMetrics {
		for _, m := range analytics.AllMetrics() {
			shape, _ := analytics.LookupShape(m)
			fmt.Printf("%-18s %s\n", m, shape.TimeShape)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code := analytics.ViolationCode(err); code != "" {
			fmt.Fprintf(os.Stderr, "Violation: %s\n", code)
		}
		os.Exit(1)
	}
}

func run() (err error) {
	defer func() {
		if perr := observability.MustRecover(recover()); perr != nil {
			err = perr
		}
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stderr)

	ctx := contextkeys.WithActorID(context.Background(), *actorID)
	ctx = contextkeys.WithRequestID(ctx, uuid.NewString())
	ctx = observability.WithLogger(ctx, logger)
	logger = observability.FromContext(ctx)

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
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store, err := openCache(cfg.Cache)
	if err != nil {
		logger.WithError(err).Warn("Cache unavailable, computing without it")
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	aggregator := analytics.NewKpiAggregator(postgres.NewRepositories(db), store, logger.FieldLogger(), metrics)
	service := analytics.NewService(
		analytics.NewScopeResolver(rbac.NewPermissionChecker(db.Reader()), postgres.NewStoreRepository(db)),
		analytics.NewQueryGuard(logger.FieldLogger(), metrics),
		aggregator,
		metrics,
	)

	q, metric, err := buildQuery(aggregator, time.Now().Truncate(time.Minute))
	if err != nil {
		return err
	}

	report, err := service.Report(ctx, q, metric)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func buildQuery(aggregator *analytics.KpiAggregator, now time.Time) (*analytics.Query, analytics.Metric, error) {
	metric, err := analytics.ParseMetric(*metricFlag)
	if err != nil {
		return nil, "", err
	}
	scope, err := analytics.ParseScope(*scopeFlag)
	if err != nil {
		return nil, "", err
	}
	storeIDs, err := parseStoreIDs(*storesFlag)
	if err != nil {
		return nil, "", err
	}

	var opts []analytics.QueryOption
	if *last30Days {
		start, end := aggregator.GetDefaultRangeLast30Days(now.Unix())
		opts = append(opts, analytics.WithWindow(start, end))
	} else {
		if *startFlag != 0 {
			opts = append(opts, analytics.WithStart(*startFlag))
		}
		if *endFlag != 0 {
			opts = append(opts, analytics.WithEnd(*endFlag))
		}
	}
	if *currency != "" {
		opts = append(opts, analytics.WithCurrency(*currency))
	}

	return analytics.NewQuery(scope, storeIDs, opts...), metric, nil
}

func parseStoreIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid store id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func openCache(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisStore(cache.RedisConfig{
			URL:       cfg.RedisURL,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			PoolSize:  cfg.RedisPoolSize,
			KeyPrefix: cfg.KeyPrefix,
		})
	case "memory":
		return cache.NewMemoryStore(cfg.MaxEntries, analytics.KpiCacheTTL), nil
	case "none":
		return nil, nil
	default:
		return nil, errors.New("unknown cache backend " + cfg.Backend)
	}
}
