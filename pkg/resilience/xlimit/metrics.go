package xlimit

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameDecisionsTotal 判定次数计数器
	metricNameDecisionsTotal = "xlimit.decisions.total"
	// metricNameTicksTotal 维护 tick 计数器
	metricNameTicksTotal = "xlimit.maintenance.ticks.total"
	// metricNameUsage 实例当前占用
	metricNameUsage = "xlimit.usage"
)

// 指标属性 key
const (
	attrAlgorithm = "algorithm"
	attrAllowed   = "allowed"
	attrInstance  = "instance"
)

// Metrics 限流指标收集器
//
// nil *Metrics 的所有方法都是空操作。
type Metrics struct {
	meter     metric.Meter
	decisions metric.Int64Counter
	ticks     metric.Int64Counter
	usage     metric.Int64ObservableGauge
}

// NewMetrics 创建指标收集器
// 如果 meterProvider 为 nil，返回 nil（不收集指标）
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("xlimit",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	decisions, err := meter.Int64Counter(
		metricNameDecisionsTotal,
		metric.WithDescription("限流判定次数"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	ticks, err := meter.Int64Counter(
		metricNameTicksTotal,
		metric.WithDescription("维护 tick 次数"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, err
	}

	usage, err := meter.Int64ObservableGauge(
		metricNameUsage,
		metric.WithDescription("限流器当前占用"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		meter:     meter,
		decisions: decisions,
		ticks:     ticks,
		usage:     usage,
	}, nil
}

// RecordDecision 记录一次判定结果
func (m *Metrics) RecordDecision(ctx context.Context, algorithm Algorithm, allowed bool) {
	if m == nil {
		return
	}

	// 使用 context.WithoutCancel 确保即使 ctx 被取消，指标仍能记录
	metricsCtx := context.WithoutCancel(ctx)

	m.decisions.Add(metricsCtx, 1, metric.WithAttributes(
		attribute.String(attrAlgorithm, algorithm.String()),
		attribute.Bool(attrAllowed, allowed),
	))
}

// RecordTick 记录一次维护 tick
func (m *Metrics) RecordTick(ctx context.Context, algorithm Algorithm) {
	if m == nil {
		return
	}

	m.ticks.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String(attrAlgorithm, algorithm.String()),
	))
}

// trackUsage 为一个实例注册占用回调，返回的 Registration 在实例停止时注销
func (m *Metrics) trackUsage(algorithm Algorithm, instance string, usage func() uint64) (metric.Registration, error) {
	if m == nil {
		return nil, nil
	}

	attrs := metric.WithAttributes(
		attribute.String(attrAlgorithm, algorithm.String()),
		attribute.String(attrInstance, instance),
	)
	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.usage, clampInt64(usage()), attrs)
		return nil
	}, m.usage)
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
