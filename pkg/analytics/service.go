package analytics

import (
	"context"
	"fmt"

	"github.com/platinummonkey/boxoffice/pkg/observability"
)

// Report is the answer to one analytics query
type Report struct {
	Metric   Metric       `json:"metric"`
	Scope    Scope        `json:"scope"`
	StoreIDs []int64      `json:"store_ids"`
	StartTS  *int64       `json:"start_ts,omitempty"`
	EndTS    int64        `json:"end_ts"`
	Currency string       `json:"currency,omitempty"`
	Value    int64        `json:"value"`
	Kpis     *KpiResult   `json:"kpis,omitempty"`
	Events   *EventCounts `json:"events,omitempty"`
}

// Service runs the full report flow: resolve scope, validate, compute
type Service struct {
	resolver   *ScopeResolver
	guard      *QueryGuard
	aggregator *KpiAggregator
	metrics    *observability.Metrics
}

// NewService creates a new analytics service
func NewService(resolver *ScopeResolver, guard *QueryGuard, aggregator *KpiAggregator, metrics *observability.Metrics) *Service {
	return &Service{
		resolver:   resolver,
		guard:      guard,
		aggregator: aggregator,
		metrics:    metrics,
	}
}

// Report authorizes and validates q for metric and returns the computed
// value. Money values are in cents.
func (s *Service) Report(ctx context.Context, q *Query, metric Metric) (*Report, error) {
	effective, err := s.resolver.ResolveEffectiveStoreIDs(ctx, q)
	if err != nil {
		s.guard.RecordResolverDenial(q, metric, err)
		s.count(q, metric, "denied")
		return nil, err
	}

	if err := s.guard.AssertValid(q, metric); err != nil {
		s.count(q, metric, "rejected")
		return nil, err
	}
	if err := s.guard.AssertScopeRules(q, effective); err != nil {
		s.count(q, metric, "denied")
		return nil, err
	}

	shape, _ := LookupShape(metric)
	if shape.RequiresOrderItemAnchor {
		if err := s.guard.AssertOrderItemAnchoringRequired(metric); err != nil {
			s.count(q, metric, "rejected")
			return nil, err
		}
	}

	end, _ := q.EndTS()
	currency, _ := q.Currency()
	report := &Report{
		Metric:   metric,
		Scope:    q.Scope(),
		StoreIDs: effective,
		EndTS:    end,
		Currency: currency,
	}

	switch shape.TimeShape {
	case TimeShapeRange:
		start, _ := q.StartTS()
		report.StartTS = &start

		kpis, err := s.aggregator.GetKpisForStores(ctx, effective, start, end, currency)
		if err != nil {
			s.count(q, metric, "error")
			return nil, err
		}
		report.Kpis = kpis
		report.Value = rangeValue(metric, kpis)

	case TimeShapePointInTime:
		counts := &EventCounts{AsOfTS: end}
		for _, storeID := range effective {
			c, err := s.aggregator.GetEventCountsForStore(ctx, storeID, end)
			if err != nil {
				s.count(q, metric, "error")
				return nil, err
			}
			counts.ActiveEvents += c.ActiveEvents
			counts.CancelledEvents += c.CancelledEvents
		}
		report.Events = counts
		if metric == MetricCancelledEvents {
			report.Value = counts.CancelledEvents
		} else {
			report.Value = counts.ActiveEvents
		}

	default:
		return nil, fmt.Errorf("metric %s has no time shape", metric)
	}

	s.count(q, metric, "ok")
	return report, nil
}

func rangeValue(metric Metric, kpis *KpiResult) int64 {
	switch metric {
	case MetricNetRevenue:
		return kpis.RevenueNetCents
	case MetricGrossRevenue:
		return kpis.GrossRevenueCents
	case MetricRefundAmount:
		return kpis.RefundedCents
	case MetricTicketsSold:
		return kpis.TicketsSold
	case MetricRsvpsReserved:
		return kpis.RSVPsConfirmed
	default:
		return 0
	}
}

func (s *Service) count(q *Query, metric Metric, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ReportsTotal.WithLabelValues(string(metric), string(q.Scope()), status).Inc()
}
