package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/boxoffice/pkg/analytics"
	"github.com/platinummonkey/boxoffice/pkg/config"
)

func TestParseStoreIDs(t *testing.T) {
	ids, err := parseStoreIDs(" 3, 1,,2 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = parseStoreIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseStoreIDs("1,two")
	assert.Error(t, err)
}

func TestBuildQuery_Last30Days(t *testing.T) {
	*metricFlag = "net_revenue"
	*scopeFlag = "admin"
	*storesFlag = "2,1,2"
	*currency = "aud"
	*last30Days = true
	defer func() {
		*scopeFlag = "vendor"
		*storesFlag = ""
		*currency = ""
		*last30Days = false
	}()

	now := time.Unix(1_700_000_000, 0)
	q, metric, err := buildQuery(analytics.NewKpiAggregator(analytics.Repositories{}, nil, nil, nil), now)
	require.NoError(t, err)

	assert.Equal(t, analytics.MetricNetRevenue, metric)
	assert.Equal(t, analytics.ScopeAdmin, q.Scope())
	assert.Equal(t, []int64{2, 1, 2}, q.StoreIDs())
	start, _ := q.StartTS()
	end, _ := q.EndTS()
	assert.Equal(t, now.Unix()-30*86400, start)
	assert.Equal(t, now.Unix(), end)
}

func TestBuildQuery_UnknownMetric(t *testing.T) {
	*metricFlag = "revenue"
	defer func() { *metricFlag = "net_revenue" }()

	_, _, err := buildQuery(nil, time.Now())
	require.Error(t, err)
	assert.Equal(t, analytics.CodeUnknownMetric, analytics.ViolationCode(err))
}

func TestOpenCache(t *testing.T) {
	store, err := openCache(config.CacheConfig{Backend: "memory", MaxEntries: 10})
	require.NoError(t, err)
	require.NotNil(t, store)
	store.Close()

	store, err = openCache(config.CacheConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = openCache(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}
