// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Structured Logging
//
// Logger wraps logrus and writes one JSON object per line:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("store_id", 42).Info("cache warmed")
//
// Packages that accept a logrus.FieldLogger get it from logger.FieldLogger().
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.GuardViolationsTotal.WithLabelValues("missing_currency").Inc()
//
//	router := mux.NewRouter()
//	observability.RegisterMetricsEndpoint(router, registry)
//	observability.RegisterHealthRoutes(router, observability.NewHealthChecker("1.0.0").
//		AddCritical("database", db).
//		AddOptional("cache", redisStore))
//
// A nil *Metrics is accepted everywhere metrics are optional.
//
// # OpenTelemetry
//
//	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "boxoffice-warmer",
//		Insecure:    true,
//	}, logger)
//	defer observability.ShutdownTracing(ctx, tp, logger)
package observability
