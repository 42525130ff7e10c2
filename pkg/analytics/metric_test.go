package analytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupShape(t *testing.T) {
	tests := []struct {
		metric   Metric
		money    bool
		shape    TimeShape
		anchored bool
	}{
		{MetricNetRevenue, true, TimeShapeRange, true},
		{MetricGrossRevenue, true, TimeShapeRange, true},
		{MetricRefundAmount, true, TimeShapeRange, true},
		{MetricTicketsSold, false, TimeShapeRange, true},
		{MetricRsvpsReserved, false, TimeShapeRange, false},
		{MetricActiveEvents, false, TimeShapePointInTime, false},
		{MetricCancelledEvents, false, TimeShapePointInTime, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			shape, ok := LookupShape(tt.metric)
			require.True(t, ok)
			assert.Equal(t, tt.money, shape.IsMoney)
			assert.Equal(t, tt.shape, shape.TimeShape)
			assert.Equal(t, tt.anchored, shape.RequiresOrderItemAnchor)
		})
	}
}

func TestLookupShape_Unknown(t *testing.T) {
	for _, m := range []Metric{"", "revenue", "NET_REVENUE", "net_revenue ", "legacy_kpi"} {
		_, ok := LookupShape(m)
		assert.False(t, ok, "metric %q should be unknown", m)
		assert.False(t, m.IsKnown())
	}
}

func TestAllMetricsAreKnown(t *testing.T) {
	metrics := AllMetrics()
	assert.Len(t, metrics, 7)
	for _, m := range metrics {
		assert.True(t, m.IsKnown(), "metric %s", m)
	}
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" tickets_sold ")
	require.NoError(t, err)
	assert.Equal(t, MetricTicketsSold, m)

	_, err = ParseMetric("TicketsSold")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.Equal(t, CodeUnknownMetric, ViolationCode(err))
}

func TestTimeShapeString(t *testing.T) {
	assert.Equal(t, "range", TimeShapeRange.String())
	assert.Equal(t, "point_in_time", TimeShapePointInTime.String())
	assert.Equal(t, "unknown", TimeShape(0).String())
}
