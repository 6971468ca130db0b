// Package xlimit 提供进程内限流器（准入控制），决定每个工作单元是放行还是拒绝。
//
// # 核心概念
//
//   - Limiter：限流器接口，Allow(weight) 返回是否放行，Cleanup() 停止后台维护
//   - TokenBucket：令牌桶，计数器按固定周期回补容量
//   - LeakyBucket：漏桶，计数器按固定周期泄漏已用容量
//   - FixedWindow：固定窗口，每个窗口边界清零计数
//   - SlidingWindow：滑动窗口日志，按时间戳裁剪过期记录
//
// 每个实例在构造时启动且只启动一个维护 goroutine（回补/泄漏/清零/裁剪），
// 调用 Cleanup 后该 goroutine 在下一次唤醒前退出。实例不可重启。
//
// # 快速开始
//
//	limiter, err := xlimit.NewTokenBucket(10, 5) // 容量 10，每秒回补 5
//	if err != nil {
//	    return err
//	}
//	defer limiter.Cleanup()
//
//	if !limiter.Allow(2) {
//	    // 被限流
//	}
//
// 也可以通过配置创建：
//
//	limiter, err := xlimit.New(xlimit.Config{
//	    Algorithm: xlimit.AlgorithmSlidingWindow,
//	    Capacity:  3,
//	    Window:    2 * time.Second,
//	})
//
// # 并发语义
//
// Allow 可被任意多个 goroutine 并发调用，"读取容量、判定、写回"是一个原子步骤：
// 令牌桶与漏桶使用 CAS 循环，固定窗口与滑动窗口使用互斥锁。
// 判定与维护 tick 之间不做额外同步，判定观察到 tick 之前或之后的状态都是合法结果。
//
// # 已知不对称
//
//   - TokenBucket 与 LeakyBucket 是同一个自动机，仅命名（回补/泄漏）不同，
//     内部共用同一实现
//   - SlidingWindow 忽略 weight，每次放行固定占用一个槽位
//   - FixedWindow 保留窗口边界突发问题：边界两侧的突发合计可达 2 倍容量
//
// # 维护失败
//
// 维护步骤 panic 时，panic 被恢复并记录为 [ErrMaintenanceFailed]，
// 该实例此后拒绝所有请求（仅影响该实例）。可通过 [Stopper] 查询。
//
// # 可观测性
//
// 日志（xlog）：Info 记录维护 goroutine 启停，Debug 记录拒绝，Error 记录维护失败（含堆栈）。
//
// 指标（OpenTelemetry Metrics，通过 WithMeterProvider 启用）：
//   - xlimit.decisions.total：判定次数 (Counter)，属性 algorithm/allowed
//   - xlimit.maintenance.ticks.total：维护 tick 次数 (Counter)
//   - xlimit.usage：实例当前占用 (ObservableGauge)，Cleanup 后不再上报
package xlimit
