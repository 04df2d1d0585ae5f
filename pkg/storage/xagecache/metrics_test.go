package xagecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/agecache/pkg/observability/xmetrics"
)

func gaugeValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Gauge[int64]:
				require.Len(t, data.DataPoints, 1)
				return data.DataPoints[0].Value
			case metricdata.Sum[int64]:
				require.Len(t, data.DataPoints, 1)
				return data.DataPoints[0].Value
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestRegisterMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	c := New[string, int](16, WithName[string, int]("users"))
	reg, err := RegisterMetrics(c, xmetrics.WithMeterProvider(mp))
	require.NoError(t, err)
	defer func() { assert.NoError(t, reg.Unregister()) }()

	fill(c, 17)
	_, _ = c.Get("key16")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(16), gaugeValue(t, rm, "agecache.cache.capacity"))
	assert.Equal(t, int64(16), gaugeValue(t, rm, "agecache.cache.entries"))
	assert.Equal(t, int64(17), gaugeValue(t, rm, "agecache.cache.adds"))
	assert.Equal(t, int64(1), gaugeValue(t, rm, "agecache.cache.evictions"))
	assert.Equal(t, int64(1), gaugeValue(t, rm, "agecache.cache.hits"))
	assert.Equal(t, int64(0), gaugeValue(t, rm, "agecache.cache.misses"))
}

func TestRegisterMetrics_NilSource(t *testing.T) {
	_, err := RegisterMetrics(nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestLoader_OTelSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	obs, err := xmetrics.NewOTelObserver(xmetrics.WithTracerProvider(tp), xmetrics.WithMeterProvider(mp))
	require.NoError(t, err)

	l, err := NewLoader(New[string, string](16), func(_ context.Context, key string) (string, error) {
		return key, nil
	}, WithLoaderObserver[string, string](obs))
	require.NoError(t, err)

	_, err = l.Load(context.Background(), "a")
	require.NoError(t, err)
	_, err = l.Load(context.Background(), "a")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "only misses produce spans")
	assert.Equal(t, "xagecache.load", spans[0].Name)
}
