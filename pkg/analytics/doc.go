// Package analytics answers KPI questions for vendors and administrators
// without ever crossing a tenant boundary.
//
// # Overview
//
// A report request flows through four pieces:
//
//  1. Query: the immutable request (scope, requested store ids, window, currency)
//  2. ScopeResolver: derives the store ids the caller may read (fail-closed)
//  3. QueryGuard: checks the metric, window, currency and scope rules; it is
//     the only component that logs violations
//  4. KpiAggregator: computes the numbers, cached for five minutes
//
// Service.Report wires these together.
//
// # Metrics
//
// The catalog is closed. Each metric has a fixed shape:
//
//	net_revenue, gross_revenue, refund_amount   money, range, order-item anchored
//	tickets_sold                                count, range, order-item anchored
//	rsvps_reserved                              count, range
//	active_events, cancelled_events             count, point in time
//
// Money is aggregated in integer cents. Net revenue is gross minus refunds,
// clamped at zero.
//
// # Errors
//
// Violations are *ViolationError values carrying a stable code and wrapping
// one of ErrInvalidScope, ErrAccessDenied, ErrInvalidTimeWindow,
// ErrMissingCurrency or ErrInvariantViolation:
//
//	if errors.Is(err, analytics.ErrAccessDenied) { ... }
//	code := analytics.ViolationCode(err) // "admin_scope_store_ids_mismatch"
//
// Repository failures inside the aggregator are not errors: the affected
// sub-metric is logged and reads as zero.
//
// # Usage
//
//	q := analytics.NewQuery(analytics.ScopeVendor, nil,
//		analytics.WithWindow(start, end),
//		analytics.WithCurrency("AUD"))
//	report, err := svc.Report(ctx, q, analytics.MetricNetRevenue)
package analytics
