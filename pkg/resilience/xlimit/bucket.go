package xlimit

import "sync/atomic"

// counterBucket 令牌桶与漏桶的共同实现
//
// 两者是同一个自动机：判定时若 weight <= capacity-used 则占用 weight，
// 每个 tick 释放 min(used, rate)。不变式 0 <= used <= capacity。
type counterBucket struct {
	*maintainer
	capacity uint64
	rate     uint64
	used     atomic.Uint64
}

func newCounterBucket(algorithm Algorithm, capacity, rate uint64, opts []Option) (*counterBucket, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	b := &counterBucket{
		maintainer: newMaintainer(algorithm, o.tick, o),
		capacity:   capacity,
		rate:       rate,
	}
	if o.startSaturated {
		b.used.Store(capacity)
	}
	b.start(b.release, b.Usage)
	return b, nil
}

// Allow 判定并占用 weight 单位容量
func (b *counterBucket) Allow(weight uint64) bool {
	if b.poisoned.Load() {
		b.record(false, weight, b.used.Load())
		return false
	}

	for {
		used := b.used.Load()
		if weight > b.capacity-used {
			b.record(false, weight, used)
			return false
		}
		if b.used.CompareAndSwap(used, used+weight) {
			b.record(true, weight, used+weight)
			return true
		}
	}
}

// release 维护步骤：释放 min(used, rate) 单位
func (b *counterBucket) release() {
	for {
		used := b.used.Load()
		freed := min(used, b.rate)
		if freed == 0 {
			return
		}
		if b.used.CompareAndSwap(used, used-freed) {
			return
		}
	}
}

// Usage 返回已用容量
func (b *counterBucket) Usage() uint64 {
	return b.used.Load()
}

// Capacity 返回容量
func (b *counterBucket) Capacity() uint64 {
	return b.capacity
}

// Available 返回剩余可用容量
func (b *counterBucket) Available() uint64 {
	return b.capacity - b.used.Load()
}

// TokenBucket 令牌桶限流器
//
// 每个 tick 回补 refillRate 个令牌，最多回补到 capacity。
// 默认以满令牌启动；WithStartSaturated 使其以零令牌启动。
type TokenBucket struct {
	*counterBucket
}

// NewTokenBucket 创建令牌桶限流器
//
// capacity 为 0 时拒绝所有请求；refillRate 为 0 时令牌耗尽后永不恢复。
func NewTokenBucket(capacity, refillRate uint64, opts ...Option) (*TokenBucket, error) {
	b, err := newCounterBucket(AlgorithmTokenBucket, capacity, refillRate, opts)
	if err != nil {
		return nil, err
	}
	return &TokenBucket{counterBucket: b}, nil
}

// RefillRate 返回每个 tick 回补的令牌数
func (t *TokenBucket) RefillRate() uint64 {
	return t.rate
}

// LeakyBucket 漏桶限流器
//
// 每个 tick 漏出 leakRate 单位，已用容量不低于 0。
// 默认以空桶启动；经典漏桶以满桶启动，使用 WithStartSaturated 复现该行为。
type LeakyBucket struct {
	*counterBucket
}

// NewLeakyBucket 创建漏桶限流器
//
// capacity 为 0 时拒绝所有请求；leakRate 为 0 时桶满后永不恢复。
func NewLeakyBucket(capacity, leakRate uint64, opts ...Option) (*LeakyBucket, error) {
	b, err := newCounterBucket(AlgorithmLeakyBucket, capacity, leakRate, opts)
	if err != nil {
		return nil, err
	}
	return &LeakyBucket{counterBucket: b}, nil
}

// LeakRate 返回每个 tick 漏出的单位数
func (l *LeakyBucket) LeakRate() uint64 {
	return l.rate
}

var (
	_ Limiter   = (*TokenBucket)(nil)
	_ Inspector = (*TokenBucket)(nil)
	_ Stopper   = (*TokenBucket)(nil)
	_ Limiter   = (*LeakyBucket)(nil)
	_ Inspector = (*LeakyBucket)(nil)
	_ Stopper   = (*LeakyBucket)(nil)
)
