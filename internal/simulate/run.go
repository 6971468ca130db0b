package simulate

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/omeyang/xthrottle/pkg/resilience/xlimit"
)

// Tally 每个仿真秒的放行与拒绝数
type Tally struct {
	Allowed []uint64
	Denied  []uint64
}

// TotalAllowed 返回放行总数
func (t Tally) TotalAllowed() uint64 {
	return sum(t.Allowed)
}

// TotalDenied 返回拒绝总数
func (t Tally) TotalDenied() uint64 {
	return sum(t.Denied)
}

func sum(values []uint64) uint64 {
	var total uint64
	for _, v := range values {
		total += v
	}
	return total
}

// Run 按 requests 驱动 limiter 并统计结果
//
// 第 i 个仿真秒内发出 requests[i] 次 Allow(1)，每次调用后等待 step/requests[i]；
// 请求数为 0 的秒记为 0 并等待一个 step。序列结束或 ctx 取消时调用一次
// limiter.Cleanup。取消时返回已完成的部分统计与 ctx.Err()。
func Run(ctx context.Context, limiter xlimit.Limiter, requests []uint64, opts ...Option) (Tally, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return Tally{}, err
	}
	defer limiter.Cleanup()

	tally := Tally{
		Allowed: make([]uint64, 0, len(requests)),
		Denied:  make([]uint64, 0, len(requests)),
	}

	for _, n := range requests {
		if n == 0 {
			tally.Allowed = append(tally.Allowed, 0)
			tally.Denied = append(tally.Denied, 0)
			if err := sleep(ctx, o.clock, o.step); err != nil {
				return tally, err
			}
			continue
		}

		var allowed, denied uint64
		pause := o.step / time.Duration(n)
		for range n {
			if limiter.Allow(1) {
				allowed++
			} else {
				denied++
			}
			if err := sleep(ctx, o.clock, pause); err != nil {
				return tally, err
			}
		}
		tally.Allowed = append(tally.Allowed, allowed)
		tally.Denied = append(tally.Denied, denied)
	}
	return tally, nil
}

// sleep 等待 d 或 ctx 取消
func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}
