package xmetrics

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRegisterCache_NilSnapshot(t *testing.T) {
	_, err := RegisterCache("users", nil)
	assert.ErrorIs(t, err, ErrNilSnapshot)
}

func TestRegisterCache_Observes(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	var hits atomic.Uint64
	hits.Store(5)
	reg, err := RegisterCache("users", func() CacheSnapshot {
		return CacheSnapshot{
			Hits:      hits.Load(),
			Misses:    2,
			Adds:      9,
			Evictions: 1,
			Entries:   8,
			Capacity:  32,
		}
	}, WithMeterProvider(mp))
	require.NoError(t, err)

	rm := collect(t, reader)

	m, ok := findMetric(rm, metricCacheHits)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
	name, ok := sum.DataPoints[0].Attributes.Value("cache")
	require.True(t, ok)
	assert.Equal(t, "users", name.AsString())

	m, ok = findMetric(rm, metricCacheCapacity)
	require.True(t, ok)
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(32), gauge.DataPoints[0].Value)

	// 采集时拉取最新值
	hits.Store(11)
	rm = collect(t, reader)
	m, _ = findMetric(rm, metricCacheHits)
	sum = m.Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(11), sum.DataPoints[0].Value)

	require.NoError(t, reg.Unregister())
}

func TestClampInt64(t *testing.T) {
	assert.Equal(t, int64(3), clampInt64(3))
	assert.Equal(t, int64(1<<63-1), clampInt64(^uint64(0)))
}
