// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
// 使用 Builder 配置输出、级别、格式和轮转（first-error-wins）：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetRotation("/var/log/xlimitsim.log").
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "limiter started", slog.String("algorithm", "token_bucket"))
//
// 所有方法强制传递 context.Context，只接受 slog.Attr。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，
// 可通过 [ParseLevel] 从字符串解析，运行时可通过 [Leveler.SetLevel] 调整。
//
// # 丢弃输出
//
// [Discard] 返回不输出任何内容的 Logger，适合作为组件的默认值和测试替身。
package xlog
