package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestGetMetrics_recordsBuilds(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	m := initMetrics()
	ctx := context.Background()
	m.BuildsTotal.Add(ctx, 2)
	m.OutputBytesTotal.Add(ctx, 512)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sums := map[string]int64{}
	for _, mt := range rm.ScopeMetrics[0].Metrics {
		if sum, ok := mt.Data.(metricdata.Sum[int64]); ok {
			for _, dp := range sum.DataPoints {
				sums[mt.Name] += dp.Value
			}
		}
	}
	require.Equal(t, int64(2), sums["packcfg.builds.total"])
	require.Equal(t, int64(512), sums["packcfg.output.bytes.total"])
}

func TestGetMetrics_singleton(t *testing.T) {
	require.Same(t, GetMetrics(), GetMetrics())
	require.NotNil(t, GetMetrics().BuildDuration)
}
