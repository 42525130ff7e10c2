package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/boxoffice/pkg/cache"
	"github.com/platinummonkey/boxoffice/pkg/observability"
)

// KpiCacheTTL is how long computed results stay cached
const KpiCacheTTL = 300 * time.Second

// Cache tags. Write paths for orders, order items, RSVPs and events purge
// these through cache.Store.InvalidateTags.
const (
	TagOrderList     = "order-list"
	TagOrderItemList = "order-item-list"
	TagRSVPList      = "rsvp-list"
	TagEventList     = "event-list"
)

// Sub-metric names used in fail-soft warnings and the source failure counter
const (
	SubMetricGrossRevenue    = "gross_revenue"
	SubMetricRefunds         = "refunds"
	SubMetricOrdersCount     = "orders_count"
	SubMetricTicketsSold     = "tickets_sold"
	SubMetricRSVPsConfirmed  = "rsvps_confirmed"
	SubMetricActiveEvents    = "active_events"
	SubMetricCancelledEvents = "cancelled_events"
)

const secondsPerDay = 86400

// StoreTag returns the cache tag covering everything computed for a store
func StoreTag(storeID int64) string {
	return fmt.Sprintf("store:%d", storeID)
}

// OrderFilter selects completed orders of one store placed within
// [StartTS, EndTS]. An empty Currency matches every currency.
type OrderFilter struct {
	StoreID  int64
	StartTS  int64
	EndTS    int64
	Currency string
}

// OrderRepository reads completed orders
type OrderRepository interface {
	// SumCompletedTotals returns the summed order totals as a decimal string
	SumCompletedTotals(ctx context.Context, f OrderFilter) (string, error)
	CountCompleted(ctx context.Context, f OrderFilter) (int64, error)
}

// RefundRepository reads completed refunds joined to qualifying orders.
// Currency is compared case-insensitively.
type RefundRepository interface {
	SumCompletedRefunds(ctx context.Context, f OrderFilter) (string, error)
}

// OrderItemRepository reads line items of completed orders
type OrderItemRepository interface {
	// SumPaidQuantities sums quantities of items with a unit price above zero
	SumPaidQuantities(ctx context.Context, f OrderFilter) (int64, error)
}

// RSVPRepository counts confirmed RSVPs for events belonging to a store
type RSVPRepository interface {
	CountConfirmed(ctx context.Context, storeID, startTS, endTS int64) (int64, error)
}

// EventRepository counts a store's events as of a point in time
type EventRepository interface {
	CountActive(ctx context.Context, storeID, asOfTS int64) (int64, error)
	CountCancelled(ctx context.Context, storeID, asOfTS int64) (int64, error)
}

// Repositories bundles the data sources the aggregator reads from
type Repositories struct {
	Orders     OrderRepository
	Refunds    RefundRepository
	OrderItems OrderItemRepository
	RSVPs      RSVPRepository
	Events     EventRepository
}

// KpiResult holds the KPIs of a store (or a sum over stores) for one window
// and currency. Money is in integer cents.
type KpiResult struct {
	RevenueNetCents   int64  `json:"revenue_net_cents"`
	GrossRevenueCents int64  `json:"gross_revenue_cents"`
	RefundedCents     int64  `json:"refunded_cents"`
	OrdersCount       int64  `json:"orders_count"`
	TicketsSold       int64  `json:"tickets_sold"`
	RSVPsConfirmed    int64  `json:"rsvps_confirmed"`
	Currency          string `json:"currency"`
}

// EventCounts holds point-in-time event counts
type EventCounts struct {
	ActiveEvents    int64 `json:"active_events"`
	CancelledEvents int64 `json:"cancelled_events"`
	AsOfTS          int64 `json:"as_of_ts"`
}

// KpiAggregator computes KPIs from the repositories, caching results.
//
// Authorization is not checked here: callers pass store ids that already
// went through ScopeResolver and QueryGuard. Repository failures are not
// authorization failures, so each sub-metric degrades to zero on its own.
type KpiAggregator struct {
	repos   Repositories
	cache   cache.Store
	log     logrus.FieldLogger
	metrics *observability.Metrics
	tracer  trace.Tracer
	ttl     time.Duration
}

// NewKpiAggregator creates an aggregator. store may be nil to disable
// caching; metrics may be nil.
func NewKpiAggregator(repos Repositories, store cache.Store, log logrus.FieldLogger, metrics *observability.Metrics) *KpiAggregator {
	if log == nil {
		log = logrus.New()
	}
	return &KpiAggregator{
		repos:   repos,
		cache:   store,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("github.com/platinummonkey/boxoffice/pkg/analytics"),
		ttl:     KpiCacheTTL,
	}
}

// GetKpisForStore returns the KPIs of one store for [startTS, endTS].
// An empty currency skips the revenue sub-metrics and counts orders and
// tickets in every currency.
func (a *KpiAggregator) GetKpisForStore(ctx context.Context, storeID, startTS, endTS int64, currency string) (*KpiResult, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	ctx, span := a.tracer.Start(ctx, "KpiAggregator.GetKpisForStore", trace.WithAttributes(
		attribute.Int64("store_id", storeID),
		attribute.Int64("start_ts", startTS),
		attribute.Int64("end_ts", endTS),
		attribute.String("currency", currency),
	))
	defer span.End()

	key := KpiCacheKey(storeID, startTS, endTS, currency)

	var cached KpiResult
	if a.readCache(ctx, "kpi", key, &cached) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &cached, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	started := time.Now()
	filter := OrderFilter{
		StoreID:  storeID,
		StartTS:  startTS,
		EndTS:    endTS,
		Currency: currency,
	}

	var gross, refunded, orders, tickets, rsvps int64

	// Goroutines never return an error: every failure is absorbed as zero.
	var g errgroup.Group
	if currency != "" {
		g.Go(func() error {
			gross = a.moneySubMetric(ctx, storeID, SubMetricGrossRevenue, func() (string, error) {
				return a.repos.Orders.SumCompletedTotals(ctx, filter)
			})
			return nil
		})
		g.Go(func() error {
			refunded = a.moneySubMetric(ctx, storeID, SubMetricRefunds, func() (string, error) {
				return a.repos.Refunds.SumCompletedRefunds(ctx, filter)
			})
			return nil
		})
	}
	g.Go(func() error {
		orders = a.countSubMetric(ctx, storeID, SubMetricOrdersCount, func() (int64, error) {
			return a.repos.Orders.CountCompleted(ctx, filter)
		})
		return nil
	})
	g.Go(func() error {
		tickets = a.countSubMetric(ctx, storeID, SubMetricTicketsSold, func() (int64, error) {
			return a.repos.OrderItems.SumPaidQuantities(ctx, filter)
		})
		return nil
	})
	g.Go(func() error {
		rsvps = a.countSubMetric(ctx, storeID, SubMetricRSVPsConfirmed, func() (int64, error) {
			return a.repos.RSVPs.CountConfirmed(ctx, storeID, startTS, endTS)
		})
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context done")
		return nil, err
	}

	net := gross - refunded
	if net < 0 {
		net = 0
	}

	result := &KpiResult{
		RevenueNetCents:   net,
		GrossRevenueCents: gross,
		RefundedCents:     refunded,
		OrdersCount:       orders,
		TicketsSold:       tickets,
		RSVPsConfirmed:    rsvps,
		Currency:          currency,
	}

	if a.metrics != nil {
		a.metrics.KpiComputeDuration.Observe(time.Since(started).Seconds())
	}

	a.writeCache(ctx, key, result, TagOrderList, TagOrderItemList, TagRSVPList, StoreTag(storeID))
	return result, nil
}

// GetKpisForStores sums the per-store KPIs over storeIDs. Net revenue is
// clamped per store before summing.
func (a *KpiAggregator) GetKpisForStores(ctx context.Context, storeIDs []int64, startTS, endTS int64, currency string) (*KpiResult, error) {
	total := &KpiResult{Currency: strings.ToUpper(strings.TrimSpace(currency))}

	for _, storeID := range storeIDs {
		r, err := a.GetKpisForStore(ctx, storeID, startTS, endTS, currency)
		if err != nil {
			return nil, err
		}
		total.RevenueNetCents += r.RevenueNetCents
		total.GrossRevenueCents += r.GrossRevenueCents
		total.RefundedCents += r.RefundedCents
		total.OrdersCount += r.OrdersCount
		total.TicketsSold += r.TicketsSold
		total.RSVPsConfirmed += r.RSVPsConfirmed
	}

	return total, nil
}

// GetEventCountsForStore returns the active and cancelled event counts of a
// store as of asOfTS
func (a *KpiAggregator) GetEventCountsForStore(ctx context.Context, storeID, asOfTS int64) (*EventCounts, error) {
	ctx, span := a.tracer.Start(ctx, "KpiAggregator.GetEventCountsForStore", trace.WithAttributes(
		attribute.Int64("store_id", storeID),
		attribute.Int64("as_of_ts", asOfTS),
	))
	defer span.End()

	key := EventCountsCacheKey(storeID, asOfTS)

	var cached EventCounts
	if a.readCache(ctx, "events", key, &cached) {
		return &cached, nil
	}

	var active, cancelled int64

	var g errgroup.Group
	g.Go(func() error {
		active = a.countSubMetric(ctx, storeID, SubMetricActiveEvents, func() (int64, error) {
			return a.repos.Events.CountActive(ctx, storeID, asOfTS)
		})
		return nil
	})
	g.Go(func() error {
		cancelled = a.countSubMetric(ctx, storeID, SubMetricCancelledEvents, func() (int64, error) {
			return a.repos.Events.CountCancelled(ctx, storeID, asOfTS)
		})
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context done")
		return nil, err
	}

	result := &EventCounts{
		ActiveEvents:    active,
		CancelledEvents: cancelled,
		AsOfTS:          asOfTS,
	}
	a.writeCache(ctx, key, result, TagEventList, StoreTag(storeID))
	return result, nil
}

// GetDefaultRangeLast30Days returns [now-30d, now] in epoch seconds. The
// window is not validated here.
func (a *KpiAggregator) GetDefaultRangeLast30Days(now int64) (startTS, endTS int64) {
	return now - 30*secondsPerDay, now
}

// KpiCacheKey builds the cache key for one store's KPIs
func KpiCacheKey(storeID, startTS, endTS int64, currency string) string {
	return fmt.Sprintf("kpi:v1:store:%d:%d:%d:%s", storeID, startTS, endTS, strings.ToUpper(currency))
}

// EventCountsCacheKey builds the cache key for one store's event counts
func EventCountsCacheKey(storeID, asOfTS int64) string {
	return fmt.Sprintf("events:v1:store:%d:%d", storeID, asOfTS)
}

func (a *KpiAggregator) moneySubMetric(ctx context.Context, storeID int64, name string, fetch func() (string, error)) int64 {
	amount, err := fetch()
	if err != nil {
		a.sourceFailed(ctx, storeID, name, err)
		return 0
	}
	cents, err := DecimalToCents(amount)
	if err != nil {
		a.sourceFailed(ctx, storeID, name, err)
		return 0
	}
	return cents
}

func (a *KpiAggregator) countSubMetric(ctx context.Context, storeID int64, name string, fetch func() (int64, error)) int64 {
	n, err := fetch()
	if err != nil {
		a.sourceFailed(ctx, storeID, name, err)
		return 0
	}
	return n
}

// sourceFailed logs a degraded sub-metric. Failures caused by the caller
// giving up are not data gaps and are not reported.
func (a *KpiAggregator) sourceFailed(ctx context.Context, storeID int64, name string, err error) {
	if ctx.Err() != nil {
		return
	}
	a.log.WithFields(logrus.Fields{
		"store_id":   storeID,
		"sub_metric": name,
		"error":      err.Error(),
	}).Warn("kpi sub-metric unavailable, using zero")

	if a.metrics != nil {
		a.metrics.KpiSourceFailuresTotal.WithLabelValues(name).Inc()
	}
}

func (a *KpiAggregator) readCache(ctx context.Context, keyType, key string, dst interface{}) bool {
	if a.cache == nil {
		return false
	}

	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			a.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("kpi cache read failed")
			a.cacheError("get")
		}
		if a.metrics != nil {
			a.metrics.CacheMissesTotal.WithLabelValues(keyType).Inc()
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		a.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("kpi cache entry unreadable")
		a.cacheError("decode")
		return false
	}

	if a.metrics != nil {
		a.metrics.CacheHitsTotal.WithLabelValues(keyType).Inc()
	}
	return true
}

func (a *KpiAggregator) writeCache(ctx context.Context, key string, value interface{}, tags ...string) {
	if a.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		a.cacheError("encode")
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl, tags...); err != nil {
		a.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("kpi cache write failed")
		a.cacheError("set")
	}
}

func (a *KpiAggregator) cacheError(op string) {
	if a.metrics != nil {
		a.metrics.CacheErrorsTotal.WithLabelValues(op).Inc()
	}
}
