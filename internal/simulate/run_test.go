package simulate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xthrottle/pkg/resilience/xlimit"
)

const testStep = 10 * time.Millisecond

func TestRun_TalliesPerSecond(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := NewMockLimiter(ctrl)

	// 交替放行/拒绝
	calls := 0
	limiter.EXPECT().Allow(uint64(1)).DoAndReturn(func(uint64) bool {
		calls++
		return calls%2 == 1
	}).Times(5)
	limiter.EXPECT().Cleanup().Times(1)

	tally, err := Run(context.Background(), limiter, []uint64{3, 0, 2}, WithStep(testStep))
	require.NoError(t, err)

	assert.Equal(t, []uint64{2, 0, 1}, tally.Allowed)
	assert.Equal(t, []uint64{1, 0, 1}, tally.Denied)
	assert.Equal(t, uint64(3), tally.TotalAllowed())
	assert.Equal(t, uint64(2), tally.TotalDenied())
}

func TestRun_PacesCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := NewMockLimiter(ctrl)
	limiter.EXPECT().Allow(uint64(1)).Return(true).Times(4)
	limiter.EXPECT().Cleanup()

	start := time.Now()
	_, err := Run(context.Background(), limiter, []uint64{4}, WithStep(40*time.Millisecond))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRun_ZeroSecondWaitsOneStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := NewMockLimiter(ctrl)
	limiter.EXPECT().Cleanup()

	start := time.Now()
	tally, err := Run(context.Background(), limiter, []uint64{0, 0}, WithStep(20*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, []uint64{0, 0}, tally.Allowed)
	assert.Equal(t, []uint64{0, 0}, tally.Denied)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRun_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := NewMockLimiter(ctrl)
	limiter.EXPECT().Allow(uint64(1)).Return(true).Times(1)
	limiter.EXPECT().Cleanup().Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tally, err := Run(ctx, limiter, []uint64{5, 5}, WithStep(time.Hour))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tally.Allowed)
}

func TestRun_InvalidStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := NewMockLimiter(ctrl)

	_, err := Run(context.Background(), limiter, []uint64{1}, WithStep(0))
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestRun_TokenBucket(t *testing.T) {
	limiter, err := xlimit.NewTokenBucket(10, 5, xlimit.WithTick(testStep))
	require.NoError(t, err)

	requests := []uint64{2, 3, 7, 3, 3, 5, 1, 12, 3, 3}
	tally, err := Run(context.Background(), limiter, requests, WithStep(testStep))
	require.NoError(t, err)

	require.Len(t, tally.Allowed, len(requests))
	for i, n := range requests {
		assert.Equal(t, n, tally.Allowed[i]+tally.Denied[i], "second %d", i)
	}
	// 首秒请求数小于容量，全部放行
	assert.Equal(t, uint64(2), tally.Allowed[0])

	<-limiter.Done()
}
