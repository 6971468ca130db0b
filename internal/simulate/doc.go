// Package simulate 按每秒请求数序列驱动限流器，统计每秒的放行与拒绝数并渲染图表。
//
// 一个仿真"秒"的时长由 step 决定（默认 1s）。缩短 step 时，桶类的维护周期
// 和窗口类的窗口时长按同一比例缩放，图表形状保持不变。
package simulate

//go:generate mockgen -destination=mock_limiter_test.go -package=simulate github.com/omeyang/xthrottle/pkg/resilience/xlimit Limiter
