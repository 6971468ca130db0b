package simulate

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xthrottle/pkg/observability/xlog"
	"github.com/omeyang/xthrottle/pkg/observability/xmetrics"
)

// 默认值
const (
	DefaultStep     = time.Second
	DefaultParallel = 4
	DefaultOutDir   = "."
)

var (
	// ErrInvalidStep 表示仿真秒时长无效
	ErrInvalidStep = errors.New("simulate: step must be positive")

	// ErrInvalidParallel 表示并行度无效
	ErrInvalidParallel = errors.New("simulate: parallel must be positive")
)

type options struct {
	step          time.Duration
	parallel      int
	outDir        string
	clock         clockwork.Clock
	logger        xlog.Logger
	observer      xmetrics.Observer
	meterProvider metric.MeterProvider
}

// Option 配置选项函数
type Option func(*options)

func buildOptions(opts []Option) (*options, error) {
	o := &options{
		step:     DefaultStep,
		parallel: DefaultParallel,
		outDir:   DefaultOutDir,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.step <= 0 {
		return nil, ErrInvalidStep
	}
	if o.parallel <= 0 {
		return nil, ErrInvalidParallel
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.logger == nil {
		o.logger = xlog.Discard()
	}
	if o.observer == nil {
		o.observer = xmetrics.NoopObserver{}
	}
	if o.outDir == "" {
		o.outDir = DefaultOutDir
	}
	return o, nil
}

// WithStep 设置一个仿真秒对应的真实时长
func WithStep(step time.Duration) Option {
	return func(o *options) { o.step = step }
}

// WithParallel 设置同时运行的场景数上限
func WithParallel(n int) Option {
	return func(o *options) { o.parallel = n }
}

// WithOutputDir 设置图表输出目录
func WithOutputDir(dir string) Option {
	return func(o *options) { o.outDir = dir }
}

// WithClock 设置节奏控制使用的时钟
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger 设置日志记录器，同时传递给创建的限流器
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver 设置场景级追踪观察者
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) { o.observer = observer }
}

// WithMeterProvider 设置限流器指标的 MeterProvider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = provider }
}
