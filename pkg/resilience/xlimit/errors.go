package xlimit

import "errors"

// 预定义错误，使用 errors.Is 进行比较
var (
	// ErrInvalidAlgorithm 表示未知的限流算法
	ErrInvalidAlgorithm = errors.New("xlimit: invalid algorithm")

	// ErrInvalidWindow 表示窗口时长无效（必须为正）
	ErrInvalidWindow = errors.New("xlimit: invalid window")

	// ErrInvalidTick 表示维护周期无效（必须为正）
	ErrInvalidTick = errors.New("xlimit: invalid tick")

	// ErrNilClock 表示传入了 nil 时钟
	ErrNilClock = errors.New("xlimit: nil clock")

	// ErrMaintenanceFailed 表示维护 goroutine 发生 panic，实例已失效
	ErrMaintenanceFailed = errors.New("xlimit: maintenance failed")
)
