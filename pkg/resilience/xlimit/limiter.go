package xlimit

import "fmt"

// =============================================================================
// 核心接口定义
// =============================================================================

// Limiter 限流器核心接口
//
// 实现必须是并发安全的。调用方只依赖此契约。
type Limiter interface {
	// Allow 判定是否放行一个权重为 weight 的请求。
	// 返回 true 表示放行并消耗 weight 单位容量；false 表示拒绝且状态不变。
	// weight 超过容量时总是拒绝，不会部分放行。
	Allow(weight uint64) bool

	// Cleanup 请求停止后台维护 goroutine，不等待其退出。
	// 可重复调用；不影响已完成或进行中的判定。
	Cleanup()
}

// =============================================================================
// 可选扩展接口（通过类型断言使用）
// =============================================================================

// Inspector 占用查询接口
//
//	if in, ok := limiter.(xlimit.Inspector); ok {
//	    log.Printf("usage %d/%d", in.Usage(), in.Capacity())
//	}
type Inspector interface {
	// Usage 返回当前占用：桶的已用容量、固定窗口计数或滑动窗口日志长度。
	// 查询不触发裁剪或回补。
	Usage() uint64

	// Capacity 返回构造时设定的容量
	Capacity() uint64
}

// Stopper 生命周期查询接口
type Stopper interface {
	// Done 在维护 goroutine 退出后关闭
	Done() <-chan struct{}

	// Err 返回导致维护 goroutine 异常退出的错误，正常停止时为 nil
	Err() error
}

// =============================================================================
// 算法
// =============================================================================

// Algorithm 限流算法标识
type Algorithm string

const (
	// AlgorithmTokenBucket 令牌桶：按周期回补容量
	AlgorithmTokenBucket Algorithm = "token_bucket"

	// AlgorithmLeakyBucket 漏桶：按周期泄漏已用容量
	AlgorithmLeakyBucket Algorithm = "leaky_bucket"

	// AlgorithmFixedWindow 固定窗口：窗口边界清零计数
	AlgorithmFixedWindow Algorithm = "fixed_window"

	// AlgorithmSlidingWindow 滑动窗口日志：按时间戳裁剪
	AlgorithmSlidingWindow Algorithm = "sliding_window"
)

// IsValid 检查算法是否有效
func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmTokenBucket, AlgorithmLeakyBucket, AlgorithmFixedWindow, AlgorithmSlidingWindow:
		return true
	default:
		return false
	}
}

// Windowed 报告算法是否以窗口时长为参数（否则以每 tick 速率为参数）
func (a Algorithm) Windowed() bool {
	return a == AlgorithmFixedWindow || a == AlgorithmSlidingWindow
}

// String 实现 fmt.Stringer
func (a Algorithm) String() string {
	return string(a)
}

// =============================================================================
// 工厂函数
// =============================================================================

// New 按配置创建限流器
//
// 配置中的 Tick 与 StartSaturated 先于 opts 应用，opts 可覆盖。
func New(cfg Config, opts ...Option) (Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	all := make([]Option, 0, len(opts)+2)
	if cfg.Tick > 0 {
		all = append(all, WithTick(cfg.Tick))
	}
	if cfg.StartSaturated {
		all = append(all, WithStartSaturated())
	}
	all = append(all, opts...)

	switch cfg.Algorithm {
	case AlgorithmTokenBucket:
		b, err := NewTokenBucket(cfg.Capacity, cfg.Rate, all...)
		if err != nil {
			return nil, err
		}
		return b, nil
	case AlgorithmLeakyBucket:
		b, err := NewLeakyBucket(cfg.Capacity, cfg.Rate, all...)
		if err != nil {
			return nil, err
		}
		return b, nil
	case AlgorithmFixedWindow:
		w, err := NewFixedWindow(cfg.Capacity, cfg.Window, all...)
		if err != nil {
			return nil, err
		}
		return w, nil
	case AlgorithmSlidingWindow:
		w, err := NewSlidingWindow(cfg.Capacity, cfg.Window, all...)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, cfg.Algorithm)
	}
}
