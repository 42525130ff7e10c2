package main

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/boxoffice/pkg/analytics"
	"github.com/platinummonkey/boxoffice/pkg/observability"
)

// StoreLister lists the stores whose KPIs are kept warm
type StoreLister interface {
	ListOnlineStoreIDs(ctx context.Context) ([]int64, error)
}

// Warmer precomputes the default 30-day KPIs and current event counts of every
// online store so that reports for that window are served from cache.
type Warmer struct {
	stores      StoreLister
	aggregator  *analytics.KpiAggregator
	currencies  []string
	concurrency int
	logger      *observability.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewWarmer creates a warmer. With no currencies only the currency-less
// counts are warmed.
func NewWarmer(stores StoreLister, aggregator *analytics.KpiAggregator, currencies []string, concurrency int, logger *observability.Logger, metrics *observability.Metrics) *Warmer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Warmer{
		stores:      stores,
		aggregator:  aggregator,
		currencies:  currencies,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Run warms every online store once. The window ends at the start of the
// current minute, matching what the report CLI asks for.
func (w *Warmer) Run(ctx context.Context) error {
	storeIDs, err := w.stores.ListOnlineStoreIDs(ctx)
	if err != nil {
		w.recordRun("error", 0)
		return fmt.Errorf("failed to list stores: %w", err)
	}

	now := w.now().Truncate(time.Minute)
	start, end := w.aggregator.GetDefaultRangeLast30Days(now.Unix())

	currencies := []string{""}
	for _, c := range w.currencies {
		currencies = append(currencies, strings.ToUpper(c))
	}

	var warmed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, storeID := range storeIDs {
		storeID := storeID
		g.Go(func() error {
			for _, currency := range currencies {
				if _, err := w.aggregator.GetKpisForStore(gctx, storeID, start, end, currency); err != nil {
					return err
				}
			}
			if _, err := w.aggregator.GetEventCountsForStore(gctx, storeID, end); err != nil {
				return err
			}
			atomic.AddInt64(&warmed, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.recordRun("error", warmed)
		return err
	}

	w.recordRun("ok", warmed)
	w.logger.WithFields(map[string]interface{}{
		"stores":   warmed,
		"start_ts": start,
		"end_ts":   end,
	}).Info("Cache warm complete")
	return nil
}

func (w *Warmer) recordRun(status string, warmed int64) {
	if w.metrics == nil {
		return
	}
	w.metrics.WarmerRunsTotal.WithLabelValues(status).Inc()
	w.metrics.WarmerStoresWarmed.Set(float64(warmed))
	if status == "ok" {
		w.metrics.WarmerLastRunSeconds.Set(float64(w.now().Unix()))
	}
}
