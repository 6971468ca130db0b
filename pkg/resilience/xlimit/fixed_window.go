package xlimit

import (
	"fmt"
	"sync"
	"time"
)

// FixedWindow 固定窗口限流器
//
// 窗口内累计占用不超过 capacity，每经过一个 window 计数清零。
// 窗口边界两侧的突发合计可达 2*capacity。
type FixedWindow struct {
	*maintainer
	capacity uint64
	window   time.Duration

	mu    sync.Mutex
	count uint64
}

// NewFixedWindow 创建固定窗口限流器，window 必须为正
func NewFixedWindow(capacity uint64, window time.Duration, opts ...Option) (*FixedWindow, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	w := &FixedWindow{
		maintainer: newMaintainer(AlgorithmFixedWindow, window, o),
		capacity:   capacity,
		window:     window,
	}
	w.start(w.reset, w.Usage)
	return w, nil
}

// Allow 判定并占用 weight 单位
func (w *FixedWindow) Allow(weight uint64) bool {
	w.mu.Lock()
	count := w.count
	allowed := !w.poisoned.Load() && weight <= w.capacity-count
	if allowed {
		count += weight
		w.count = count
	}
	w.mu.Unlock()

	w.record(allowed, weight, count)
	return allowed
}

func (w *FixedWindow) reset() {
	w.mu.Lock()
	w.count = 0
	w.mu.Unlock()
}

// Usage 返回当前窗口内的计数
func (w *FixedWindow) Usage() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Capacity 返回窗口容量
func (w *FixedWindow) Capacity() uint64 {
	return w.capacity
}

// Window 返回窗口时长
func (w *FixedWindow) Window() time.Duration {
	return w.window
}

var (
	_ Limiter   = (*FixedWindow)(nil)
	_ Inspector = (*FixedWindow)(nil)
	_ Stopper   = (*FixedWindow)(nil)
)
