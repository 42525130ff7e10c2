package observability

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Guard metrics
	GuardViolationsTotal *prometheus.CounterVec

	// KPI metrics
	ReportsTotal           *prometheus.CounterVec
	KpiComputeDuration     prometheus.Histogram
	KpiSourceFailuresTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Warmer metrics
	WarmerRunsTotal      *prometheus.CounterVec
	WarmerStoresWarmed   prometheus.Gauge
	WarmerLastRunSeconds prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		GuardViolationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxoffice_guard_violations_total",
				Help: "Total number of rejected analytics queries",
			},
			[]string{"violation_code"},
		),

		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxoffice_reports_total",
				Help: "Total number of report requests",
			},
			[]string{"metric", "scope", "status"},
		),
		KpiComputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "boxoffice_kpi_compute_duration_seconds",
				Help:    "Time spent computing KPIs for one store on a cache miss",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		KpiSourceFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxoffice_kpi_source_failures_total",
				Help: "Total number of sub-metric repository failures degraded to zero",
			},
			[]string{"sub_metric"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxoffice_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxoffice_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_type"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxoffice_cache_errors_total",
				Help: "Total number of cache read/write failures",
			},
			[]string{"operation"},
		),

		WarmerRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boxoffice_warmer_runs_total",
				Help: "Total number of cache warmer runs",
			},
			[]string{"status"},
		),
		WarmerStoresWarmed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "boxoffice_warmer_stores_warmed",
				Help: "Number of stores warmed by the last run",
			},
		),
		WarmerLastRunSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "boxoffice_warmer_last_run_timestamp_seconds",
				Help: "Unix time of the last completed warmer run",
			},
		),
	}

	registry.MustRegister(
		m.GuardViolationsTotal,
		m.ReportsTotal,
		m.KpiComputeDuration,
		m.KpiSourceFailuresTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		m.WarmerRunsTotal,
		m.WarmerStoresWarmed,
		m.WarmerLastRunSeconds,
	)

	return m
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
