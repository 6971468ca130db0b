// Package xmetrics 提供统一的观测接口（追踪 span + 操作指标）。
//
// 业务代码只依赖 [Observer] 与 [Span]，不直接引用 OpenTelemetry：
//
//	obs, err := xmetrics.NewOTelObserver(
//	    xmetrics.WithTracerProvider(tp),
//	    xmetrics.WithMeterProvider(mp),
//	)
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//	    Component: "xlimitsim",
//	    Operation: "scenario",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// 未配置 Observer 时 [Start] 返回空跨度，调用方无需判空。
//
// OTel 实现记录两个指标：
//   - xthrottle.operation.total：按 component/operation/status 计数
//   - xthrottle.operation.duration：操作耗时（秒）
package xmetrics
