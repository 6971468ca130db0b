package xmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestProviders(t *testing.T) (*tracetest.InMemoryExporter, *sdkmetric.ManualReader, Observer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	obs, err := NewOTelObserver(
		WithTracerProvider(tp),
		WithMeterProvider(mp),
		WithInstrumentationName("test"),
	)
	require.NoError(t, err)
	return exporter, reader, obs
}

func TestStart_NilObserver(t *testing.T) {
	ctx, span := Start(nil, nil, SpanOptions{}) //nolint:staticcheck // 验证 nil ctx 兜底
	require.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
	assert.NotPanics(t, func() { span.End(Result{}) })
}

func TestNoopObserver(t *testing.T) {
	ctx, span := NoopObserver{}.Start(context.Background(), SpanOptions{Component: "x"})
	assert.NotNil(t, ctx)
	assert.Equal(t, NoopSpan{}, span)
}

func TestOTelObserver_RecordsSpanAndMetrics(t *testing.T) {
	exporter, reader, obs := newTestProviders(t)

	_, span := Start(context.Background(), obs, SpanOptions{
		Component: "xlimitsim",
		Operation: "scenario",
		Attrs: []Attr{
			String("algorithm", "token_bucket"),
			Uint64("capacity", 10),
			Duration("step", time.Second),
			Bool("saturated", false),
		},
	})
	span.End(Result{Attrs: []Attr{Int("allowed", 7)}})
	// 幂等
	span.End(Result{Err: errors.New("ignored")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "scenario", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.Int64("capacity", 10))
	assert.Contains(t, spans[0].Attributes, attribute.Int("allowed", 7))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metricOperationTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total)
}

func TestOTelObserver_ErrorStatus(t *testing.T) {
	exporter, _, obs := newTestProviders(t)

	_, span := obs.Start(context.Background(), SpanOptions{})
	span.End(Result{Err: errors.New("render failed")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, unknownValue, spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "render failed", spans[0].Status.Description)
}

func TestResolveStatus(t *testing.T) {
	assert.Equal(t, StatusOK, resolveStatus(Result{}))
	assert.Equal(t, StatusError, resolveStatus(Result{Err: errors.New("x")}))
	assert.Equal(t, StatusOK, resolveStatus(Result{Status: StatusOK, Err: errors.New("x")}))
}
