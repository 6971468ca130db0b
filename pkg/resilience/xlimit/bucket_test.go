package xlimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenBucket(t *testing.T, capacity, rate uint64, opts ...Option) (*TokenBucket, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	b, err := NewTokenBucket(capacity, rate, append([]Option{WithClock(fc)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		b.Cleanup()
		<-b.Done()
	})
	return b, fc
}

func newTestLeakyBucket(t *testing.T, capacity, rate uint64, opts ...Option) (*LeakyBucket, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	b, err := NewLeakyBucket(capacity, rate, append([]Option{WithClock(fc)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		b.Cleanup()
		<-b.Done()
	})
	return b, fc
}

func TestTokenBucket_BurstWithinOneTick(t *testing.T) {
	b, _ := newTestTokenBucket(t, 10, 5)

	allowed := countAllowed(b, 13, 2)

	assert.Equal(t, 5, allowed)
	assert.Equal(t, uint64(10), b.Usage())
	assert.Equal(t, uint64(5), b.RefillRate())
	assert.Equal(t, AlgorithmTokenBucket, b.Algorithm())
}

func TestLeakyBucket_DrainRestoresAdmission(t *testing.T) {
	b, fc := newTestLeakyBucket(t, 20, 2)

	var results []bool
	for range 10 {
		results = append(results, b.Allow(5))
	}
	assert.Equal(t, []bool{true, true, true, true, false, false, false, false, false, false}, results)
	assert.Equal(t, uint64(20), b.Usage())

	for range 3 {
		advance(t, fc, b.maintainer, DefaultTick)
	}
	assert.Equal(t, uint64(14), b.Usage())
	assert.True(t, b.Allow(5))
	assert.Equal(t, uint64(2), b.LeakRate())
}

func TestCounterBucket_Release(t *testing.T) {
	tests := []struct {
		name  string
		used  uint64
		rate  uint64
		ticks int
		want  uint64
	}{
		{"partial release", 10, 3, 2, 4},
		{"release floors at zero", 10, 3, 4, 0},
		{"release exactly to zero", 9, 3, 3, 0},
		{"zero rate never recovers", 10, 0, 5, 10},
		{"empty stays empty", 0, 5, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestTokenBucket(t, 10, tt.rate)
			require.True(t, b.Allow(tt.used))

			for range tt.ticks {
				b.release()
			}

			assert.Equal(t, tt.want, b.Usage())
			assert.Equal(t, b.Capacity()-tt.want, b.Available())
		})
	}
}

func TestCounterBucket_TicksThroughClock(t *testing.T) {
	b, fc := newTestTokenBucket(t, 10, 3, WithTick(100*time.Millisecond))
	require.True(t, b.Allow(10))

	advance(t, fc, b.maintainer, 100*time.Millisecond)
	assert.Equal(t, uint64(7), b.Usage())

	advance(t, fc, b.maintainer, 100*time.Millisecond)
	assert.Equal(t, uint64(4), b.Usage())
}

func TestCounterBucket_WeightBounds(t *testing.T) {
	b, _ := newTestTokenBucket(t, 5, 1)

	assert.False(t, b.Allow(6), "weight above capacity is never admitted")
	assert.Equal(t, uint64(0), b.Usage(), "rejection leaves state unchanged")

	assert.True(t, b.Allow(0))
	assert.Equal(t, uint64(0), b.Usage())

	assert.True(t, b.Allow(5))
	assert.False(t, b.Allow(1))
	assert.True(t, b.Allow(0))
	assert.Equal(t, uint64(5), b.Usage())
}

func TestCounterBucket_ZeroCapacity(t *testing.T) {
	b, _ := newTestLeakyBucket(t, 0, 5)

	assert.Equal(t, 0, countAllowed(b, 10, 1))
}

func TestCounterBucket_StartSaturated(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) (*counterBucket, *clockwork.FakeClock)
	}{
		{
			name: "token bucket",
			build: func(t *testing.T) (*counterBucket, *clockwork.FakeClock) {
				b, fc := newTestTokenBucket(t, 4, 2, WithStartSaturated())
				return b.counterBucket, fc
			},
		},
		{
			// 满桶启动的漏桶首个 tick 前拒绝全部请求
			name: "leaky bucket",
			build: func(t *testing.T) (*counterBucket, *clockwork.FakeClock) {
				b, fc := newTestLeakyBucket(t, 4, 2, WithStartSaturated())
				return b.counterBucket, fc
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fc := tt.build(t)

			assert.Equal(t, uint64(4), b.Usage())
			assert.Equal(t, 0, countAllowed(b, 4, 1))

			advance(t, fc, b.maintainer, DefaultTick)
			assert.True(t, b.Allow(2))
			assert.False(t, b.Allow(1))
		})
	}
}

func TestCounterBucket_ConcurrentAdmissionsNeverExceedCapacity(t *testing.T) {
	const (
		capacity   = 500
		goroutines = 50
		perWorker  = 20
	)
	b, _ := newTestTokenBucket(t, capacity, 0)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				if b.Allow(1) {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(capacity), admitted.Load())
	assert.Equal(t, uint64(capacity), b.Usage())
}

func TestCounterBucket_ConcurrentWithRelease(t *testing.T) {
	b, _ := newTestLeakyBucket(t, 100, 7)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				b.release()
			}
		}
	}()

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 2000 {
				b.Allow(uint64(i%5 + 1))
				assert.LessOrEqual(t, b.Usage(), b.Capacity())
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
	assert.LessOrEqual(t, b.Usage(), b.Capacity())
}

func TestCounterBucket_Cleanup(t *testing.T) {
	fc := clockwork.NewFakeClock()
	b, err := NewTokenBucket(10, 5, WithClock(fc))
	require.NoError(t, err)

	require.True(t, b.Allow(10))
	assert.False(t, b.Stopped())

	b.Cleanup()
	b.Cleanup()
	waitDone(t, b)

	assert.True(t, b.Stopped())
	assert.NoError(t, b.Err())

	// 停止后不再回补
	fc.Advance(5 * DefaultTick)
	assert.Equal(t, uint64(10), b.Usage())

	// 停止后判定仍然合法
	assert.False(t, b.Allow(1))
	assert.True(t, b.Allow(0))
}

func TestNewCounterBucket_InvalidOptions(t *testing.T) {
	_, err := NewTokenBucket(10, 5, WithTick(0))
	assert.ErrorIs(t, err, ErrInvalidTick)

	_, err = NewLeakyBucket(10, 5, WithTick(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidTick)

	_, err = NewTokenBucket(10, 5, WithClock(nil))
	assert.ErrorIs(t, err, ErrNilClock)
}
