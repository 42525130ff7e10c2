package analytics

import "strings"

// Metric identifies a reportable KPI
type Metric string

const (
	MetricNetRevenue      Metric = "net_revenue"
	MetricGrossRevenue    Metric = "gross_revenue"
	MetricTicketsSold     Metric = "tickets_sold"
	MetricRsvpsReserved   Metric = "rsvps_reserved"
	MetricRefundAmount    Metric = "refund_amount"
	MetricActiveEvents    Metric = "active_events"
	MetricCancelledEvents Metric = "cancelled_events"
)

// TimeShape describes which time window a metric accepts
type TimeShape int

const (
	// TimeShapeRange metrics need both start and end
	TimeShapeRange TimeShape = iota + 1
	// TimeShapePointInTime metrics are evaluated as of an end timestamp
	TimeShapePointInTime
)

func (s TimeShape) String() string {
	switch s {
	case TimeShapeRange:
		return "range"
	case TimeShapePointInTime:
		return "point_in_time"
	default:
		return "unknown"
	}
}

// Shape holds the fixed attributes of a metric
type Shape struct {
	IsMoney                 bool
	TimeShape               TimeShape
	RequiresOrderItemAnchor bool
}

// LookupShape returns the shape of m. The table is closed: anything not
// listed here is unknown and must be rejected by the caller.
func LookupShape(m Metric) (Shape, bool) {
	switch m {
	case MetricNetRevenue, MetricGrossRevenue, MetricRefundAmount:
		return Shape{IsMoney: true, TimeShape: TimeShapeRange, RequiresOrderItemAnchor: true}, true
	case MetricTicketsSold:
		return Shape{TimeShape: TimeShapeRange, RequiresOrderItemAnchor: true}, true
	case MetricRsvpsReserved:
		return Shape{TimeShape: TimeShapeRange}, true
	case MetricActiveEvents, MetricCancelledEvents:
		return Shape{TimeShape: TimeShapePointInTime}, true
	default:
		return Shape{}, false
	}
}

// IsKnown reports whether m is in the catalog
func (m Metric) IsKnown() bool {
	_, ok := LookupShape(m)
	return ok
}

// AllMetrics returns every catalog metric in declaration order
func AllMetrics() []Metric {
	return []Metric{
		MetricNetRevenue,
		MetricGrossRevenue,
		MetricTicketsSold,
		MetricRsvpsReserved,
		MetricRefundAmount,
		MetricActiveEvents,
		MetricCancelledEvents,
	}
}

// ParseMetric converts external input into a Metric. Matching is exact after
// trimming surrounding whitespace; legacy spellings are not accepted.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.TrimSpace(s))
	if !m.IsKnown() {
		return "", newViolation(ErrInvariantViolation, CodeUnknownMetric, "metric is not in the catalog")
	}
	return m, nil
}
