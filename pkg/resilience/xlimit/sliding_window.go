package xlimit

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// SlidingWindow 滑动窗口日志限流器
//
// 保存最近 window 内每次放行的时间戳，日志长度不超过 capacity。
// weight 被忽略：每次放行固定占用一个槽位。
type SlidingWindow struct {
	*maintainer
	capacity uint64
	window   time.Duration

	mu  sync.Mutex
	log []time.Time // 按时间升序
}

// NewSlidingWindow 创建滑动窗口限流器，window 必须为正
//
// 后台每 window/2 裁剪一次过期记录，使 Usage 在无请求时也能回落。
func NewSlidingWindow(capacity uint64, window time.Duration, opts ...Option) (*SlidingWindow, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	w := &SlidingWindow{
		maintainer: newMaintainer(AlgorithmSlidingWindow, max(window/2, time.Nanosecond), o),
		capacity:   capacity,
		window:     window,
	}
	w.start(w.prune, w.Usage)
	return w, nil
}

// Allow 判定并记录一次放行，weight 不参与判定
func (w *SlidingWindow) Allow(weight uint64) bool {
	w.mu.Lock()
	// 持锁读取时钟，保证追加顺序与时间顺序一致
	now := w.clock.Now()
	w.pruneLocked(now)
	allowed := !w.poisoned.Load() && uint64(len(w.log)) < w.capacity
	if allowed {
		w.log = append(w.log, now)
	}
	usage := uint64(len(w.log))
	w.mu.Unlock()

	w.record(allowed, weight, usage)
	return allowed
}

func (w *SlidingWindow) prune() {
	w.mu.Lock()
	w.pruneLocked(w.clock.Now())
	w.mu.Unlock()
}

// pruneLocked 移除早于 now-window 的记录，调用方持有 mu
func (w *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.window)
	i := sort.Search(len(w.log), func(i int) bool {
		return !w.log[i].Before(cutoff)
	})
	if i == 0 {
		return
	}
	if i == len(w.log) {
		// 全部过期时复用底层数组
		w.log = w.log[:0]
		return
	}
	w.log = w.log[i:]
}

// Usage 返回当前日志长度，不触发裁剪
func (w *SlidingWindow) Usage() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return uint64(len(w.log))
}

// Capacity 返回窗口容量
func (w *SlidingWindow) Capacity() uint64 {
	return w.capacity
}

// Window 返回窗口时长
func (w *SlidingWindow) Window() time.Duration {
	return w.window
}

var (
	_ Limiter   = (*SlidingWindow)(nil)
	_ Inspector = (*SlidingWindow)(nil)
	_ Stopper   = (*SlidingWindow)(nil)
)
