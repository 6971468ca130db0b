package xlimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xthrottle/pkg/observability/xlog"
)

// maintainer 管理一个限流器实例的后台维护 goroutine
//
// 状态机：ACTIVE -> STOPPED，不可重启。goroutine 只持有 maintainer 自身、
// 停止通道和维护步骤，不持有调用方的限流器句柄。
type maintainer struct {
	algorithm Algorithm
	id        string
	period    time.Duration
	clock     clockwork.Clock
	logger    xlog.Logger
	metrics   *Metrics

	stopped  atomic.Bool
	poisoned atomic.Bool
	steps    atomic.Uint64
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	errMu sync.Mutex
	err   error

	registration metric.Registration
}

func newMaintainer(algorithm Algorithm, period time.Duration, o *options) *maintainer {
	id := uuid.NewString()
	return &maintainer{
		algorithm: algorithm,
		id:        id,
		period:    period,
		clock:     o.clock,
		logger: o.logger.With(
			xlog.Component("xlimit"),
			slog.String(attrAlgorithm, algorithm.String()),
			slog.String(attrInstance, id),
		),
		metrics: o.metrics,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start 注册占用指标并启动维护 goroutine，每个实例只调用一次
//
// ticker 在调用方 goroutine 中创建，保证构造返回后推进假时钟即可触发 tick。
func (m *maintainer) start(step func(), usage func() uint64) {
	ctx := context.Background()

	reg, err := m.metrics.trackUsage(m.algorithm, m.id, usage)
	if err != nil {
		m.logger.Warn(ctx, "register usage gauge failed", xlog.Err(err))
	}
	m.registration = reg

	ticker := m.clock.NewTicker(m.period)
	m.logger.Info(ctx, "limiter maintenance started", slog.Duration("period", m.period))
	go m.loop(ticker, step)
}

func (m *maintainer) loop(ticker clockwork.Ticker, step func()) {
	ctx := context.Background()
	defer close(m.done)
	defer ticker.Stop()
	defer m.unregister(ctx)

	for {
		select {
		case <-m.stopCh:
			m.logger.Info(ctx, "limiter maintenance stopped", slog.Uint64("ticks", m.steps.Load()))
			return
		case <-ticker.Chan():
			// 每次唤醒都检查停止标志，stopCh 与 ticker 同时就绪时不再执行维护
			if m.stopped.Load() {
				m.logger.Info(ctx, "limiter maintenance stopped", slog.Uint64("ticks", m.steps.Load()))
				return
			}
			if err := m.runStep(step); err != nil {
				m.fail(ctx, err)
				return
			}
		}
	}
}

// runStep 执行一次维护步骤，panic 转为错误返回
func (m *maintainer) runStep(step func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMaintenanceFailed, r)
		}
	}()

	step()
	m.steps.Add(1)
	m.metrics.RecordTick(context.Background(), m.algorithm)
	return nil
}

// fail 记录维护失败并使实例失效，此后该实例拒绝所有请求
func (m *maintainer) fail(ctx context.Context, err error) {
	m.errMu.Lock()
	m.err = err
	m.errMu.Unlock()

	m.poisoned.Store(true)
	m.stopped.Store(true)
	m.logger.Stack(ctx, "limiter maintenance failed, instance disabled", xlog.Err(err))
}

func (m *maintainer) unregister(ctx context.Context) {
	if m.registration == nil {
		return
	}
	if err := m.registration.Unregister(); err != nil {
		m.logger.Warn(ctx, "unregister usage gauge failed", xlog.Err(err))
	}
}

// Cleanup 请求停止维护 goroutine，可重复调用，不阻塞
func (m *maintainer) Cleanup() {
	m.stopOnce.Do(func() {
		m.stopped.Store(true)
		close(m.stopCh)
	})
}

// Done 在维护 goroutine 退出后关闭
func (m *maintainer) Done() <-chan struct{} {
	return m.done
}

// Err 返回维护失败原因，正常运行或正常停止时为 nil
func (m *maintainer) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}

// Stopped 报告实例是否已进入 STOPPED 状态
func (m *maintainer) Stopped() bool {
	return m.stopped.Load()
}

// Algorithm 返回实例的算法
func (m *maintainer) Algorithm() Algorithm {
	return m.algorithm
}

// ID 返回实例标识，与日志和指标中的 instance 属性一致
func (m *maintainer) ID() string {
	return m.id
}

// record 记录判定结果，拒绝时输出 Debug 日志
func (m *maintainer) record(allowed bool, weight, usage uint64) {
	ctx := context.Background()
	m.metrics.RecordDecision(ctx, m.algorithm, allowed)
	if !allowed {
		m.logger.Debug(ctx, "rate limited",
			slog.Uint64("weight", weight),
			slog.Uint64("usage", usage),
		)
	}
}
