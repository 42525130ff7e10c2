package analytics

import (
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/boxoffice/pkg/observability"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// QueryGuard validates queries against the metric catalog and the resolved
// scope. It is the single place where violations are logged. Log records
// carry only metric, violation_code, scope and store_ids.
type QueryGuard struct {
	log     logrus.FieldLogger
	metrics *observability.Metrics
}

// NewQueryGuard creates a guard. A nil logger falls back to a fresh logrus
// logger; metrics may be nil.
func NewQueryGuard(log logrus.FieldLogger, metrics *observability.Metrics) *QueryGuard {
	if log == nil {
		log = logrus.New()
	}
	return &QueryGuard{log: log, metrics: metrics}
}

// AssertNoSemanticMixing rejects metrics that are not in the catalog
func (g *QueryGuard) AssertNoSemanticMixing(metric Metric) error {
	if _, err := g.shapeOf(metric, nil); err != nil {
		return err
	}
	return nil
}

// AssertValidForMoneyMetric checks that metric is a money metric and that q
// carries a matching window and a well-formed currency
func (g *QueryGuard) AssertValidForMoneyMetric(q *Query, metric Metric) error {
	shape, err := g.shapeOf(metric, q)
	if err != nil {
		return err
	}
	if !shape.IsMoney {
		return g.reject(q, metric, newViolation(ErrInvariantViolation, CodeMetricTypeMismatchMoney, "metric is not a money metric"))
	}
	if err := g.checkWindow(q, metric, shape.TimeShape); err != nil {
		return err
	}

	currency, ok := q.Currency()
	if !ok || currency == "" {
		return g.reject(q, metric, newViolation(ErrMissingCurrency, CodeMissingCurrency, "money metrics require a currency"))
	}
	if !currencyPattern.MatchString(currency) {
		return g.reject(q, metric, newViolation(ErrInvariantViolation, CodeInvalidCurrency, "currency must be a 3-letter ISO code"))
	}
	return nil
}

// AssertValidForCountMetric checks that metric is a count metric, that q
// carries a matching window and that no currency was supplied
func (g *QueryGuard) AssertValidForCountMetric(q *Query, metric Metric) error {
	shape, err := g.shapeOf(metric, q)
	if err != nil {
		return err
	}
	if shape.IsMoney {
		return g.reject(q, metric, newViolation(ErrInvariantViolation, CodeMetricTypeMismatchCount, "metric is not a count metric"))
	}
	if err := g.checkWindow(q, metric, shape.TimeShape); err != nil {
		return err
	}
	if _, ok := q.Currency(); ok {
		return g.reject(q, metric, newViolation(ErrInvariantViolation, CodeCurrencyNotAllowedOnCount, "count metrics do not take a currency"))
	}
	return nil
}

// AssertValid dispatches to the money or count assertion based on the
// metric's shape
func (g *QueryGuard) AssertValid(q *Query, metric Metric) error {
	shape, err := g.shapeOf(metric, q)
	if err != nil {
		return err
	}
	if shape.IsMoney {
		return g.AssertValidForMoneyMetric(q, metric)
	}
	return g.AssertValidForCountMetric(q, metric)
}

// AssertScopeRules checks the resolved effective store ids against the
// query's scope. For admin scope the requested and effective sets must be
// equal: extras would widen access, omissions would hide a partial denial.
func (g *QueryGuard) AssertScopeRules(q *Query, effectiveStoreIDs []int64) error {
	switch q.Scope() {
	case ScopeVendor:
		if len(effectiveStoreIDs) == 0 {
			return g.reject(q, "", newViolation(ErrAccessDenied, CodeVendorRequiresStore, "vendor scope requires at least one store"))
		}
		return nil
	case ScopeAdmin:
		if len(q.StoreIDs()) == 0 {
			return g.reject(q, "", newViolation(ErrAccessDenied, CodeAdminMissingStoreIDs, "admin scope requires store ids"))
		}
		if len(effectiveStoreIDs) == 0 {
			return g.reject(q, "", newViolation(ErrAccessDenied, CodeAdminMissingEffectiveStores, "admin scope resolved to no stores"))
		}
		if !sameStoreSet(q.StoreIDs(), effectiveStoreIDs) {
			return g.reject(q, "", newViolation(ErrAccessDenied, CodeAdminStoreIDsMismatch, "requested stores do not match authorized stores"))
		}
		return nil
	default:
		return g.reject(q, "", newViolation(ErrInvalidScope, CodeInvalidScope, "scope must be vendor or admin"))
	}
}

// AssertOrderItemAnchoringRequired rejects metrics that are not computed
// from paid order items. Reaching this for such a metric is a programming
// error.
func (g *QueryGuard) AssertOrderItemAnchoringRequired(metric Metric) error {
	shape, err := g.shapeOf(metric, nil)
	if err != nil {
		return err
	}
	if !shape.RequiresOrderItemAnchor {
		return g.reject(nil, metric, newViolation(ErrInvariantViolation, CodeAnchoringNotApplicable, "metric is not order-item anchored"))
	}
	return nil
}

// RecordResolverDenial logs a violation raised outside the guard (for example by the
// scope resolver) so the audit trail stays in one place. Non-violation
// errors are ignored.
func (g *QueryGuard) RecordResolverDenial(q *Query, metric Metric, err error) {
	if ViolationCode(err) == "" {
		return
	}
	g.record(q, metric, err)
}

func (g *QueryGuard) shapeOf(metric Metric, q *Query) (Shape, error) {
	shape, ok := LookupShape(metric)
	if !ok {
		return Shape{}, g.reject(q, metric, newViolation(ErrInvariantViolation, CodeUnknownMetric, "metric is not in the catalog"))
	}
	return shape, nil
}

func (g *QueryGuard) checkWindow(q *Query, metric Metric, shape TimeShape) error {
	start, hasStart := q.StartTS()
	end, hasEnd := q.EndTS()

	var code string
	switch shape {
	case TimeShapeRange:
		switch {
		case !hasStart:
			code = CodeRangeMissingStart
		case !hasEnd:
			code = CodeRangeMissingEnd
		case start <= 0:
			code = CodeRangeStartNotPositive
		case end <= 0:
			code = CodeRangeEndNotPositive
		case start >= end:
			code = CodeRangeStartNotBeforeEnd
		}
	case TimeShapePointInTime:
		switch {
		case hasStart:
			code = CodePointInTimeStartNotAllow
		case !hasEnd:
			code = CodePointInTimeMissingEnd
		case end <= 0:
			code = CodePointInTimeEndNotPos
		}
	default:
		return g.reject(q, metric, newViolation(ErrInvariantViolation, CodeUnknownMetric, "metric has no time shape"))
	}

	if code != "" {
		return g.reject(q, metric, newViolation(ErrInvalidTimeWindow, code, "time window does not match metric shape"))
	}
	return nil
}

// reject logs err and returns it
func (g *QueryGuard) reject(q *Query, metric Metric, err *ViolationError) error {
	g.record(q, metric, err)
	return err
}

func (g *QueryGuard) record(q *Query, metric Metric, err error) {
	code := ViolationCode(err)
	scope := ""
	storeIDs := []int64{}
	if q != nil {
		scope = string(q.Scope())
		storeIDs = NormalizeStoreIDs(q.StoreIDs())
	}

	entry := g.log.WithFields(logrus.Fields{
		"metric":         string(metric),
		"violation_code": code,
		"scope":          scope,
		"store_ids":      storeIDs,
	})
	if isInvariant(err) {
		entry.Error("analytics query rejected")
	} else {
		entry.Warn("analytics query rejected")
	}

	if g.metrics != nil {
		g.metrics.GuardViolationsTotal.WithLabelValues(code).Inc()
	}
}
