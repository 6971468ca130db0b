package xlimit

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xthrottle/pkg/observability/xlog"
)

// DefaultTick 令牌桶与漏桶的默认维护周期
const DefaultTick = time.Second

// options 内部配置结构
type options struct {
	logger         xlog.Logger
	clock          clockwork.Clock
	tick           time.Duration
	startSaturated bool
	meterProvider  metric.MeterProvider
	metrics        *Metrics
	initErr        error // Option 阶段的错误，延迟到构造时返回
}

// Option 配置选项函数
type Option func(*options)

func defaultOptions() *options {
	return &options{
		tick: DefaultTick,
	}
}

// buildOptions 应用选项并补全默认值
// 设计决策: Option 函数签名不支持返回错误，因此将非法参数暂存在 initErr 中，
// 在构造函数里统一检查。
func buildOptions(opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.initErr != nil {
		return nil, o.initErr
	}
	if o.tick <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTick, o.tick)
	}
	if o.logger == nil {
		o.logger = xlog.Discard()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.metrics == nil && o.meterProvider != nil {
		m, err := NewMetrics(o.meterProvider)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// WithLogger 设置日志记录器
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock 设置时钟，测试中可注入 clockwork.NewFakeClock()
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock == nil {
			o.initErr = ErrNilClock
			return
		}
		o.clock = clock
	}
}

// WithTick 设置令牌桶与漏桶的维护周期，默认 1s
//
// 窗口类限流器的维护周期由窗口时长决定，忽略此选项。
func WithTick(tick time.Duration) Option {
	return func(o *options) {
		o.tick = tick
	}
}

// WithStartSaturated 令牌桶与漏桶以满占用状态启动
//
// 默认从空桶启动（全部容量可用）；启用后首批请求需等待维护 tick 释放容量。
func WithStartSaturated() Option {
	return func(o *options) {
		o.startSaturated = true
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider，nil 表示不收集指标
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = provider
	}
}

// WithMetrics 复用已创建的指标收集器，多个限流器共享同一组指标时使用
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
