// xlimitsim 用内置或配置文件中的场景驱动限流器，并为每个场景输出放行/拒绝折线图。
//
// 用法:
//
//	xlimitsim [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	--log-level    日志级别 debug/info/warn/error (默认: info)
//	--log-format   日志格式 text/json (默认: text)
//	--log-file     日志文件路径，设置后按大小轮转
//
// 命令:
//
//	run            运行场景并输出 PNG 图表
//	list           列出场景及其输出文件名
//
// 退出码:
//
//	0: 成功
//	1: 失败（配置错误、渲染失败、被信号中断等）
//
// 示例:
//
//	xlimitsim run                                   # 运行全部内置场景
//	xlimitsim run --out charts --step 100ms         # 10 倍速运行
//	xlimitsim run --config scenarios.yaml --parallel 2
//	xlimitsim run --only token_bucket_capacity_10_refill_5
//	xlimitsim list
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xthrottle/pkg/observability/xlog"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// state 在全局 Before/After 与子命令之间共享日志实例
type state struct {
	logger   xlog.Logger
	closeLog func() error
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	st := &state{logger: xlog.Discard()}

	return &cli.Command{
		Name:    "xlimitsim",
		Usage:   "限流算法仿真与图表生成",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "日志级别 (debug/info/warn/error)",
				Value:   "info",
				Sources: cli.EnvVars("XLIMITSIM_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "日志格式 (text/json)",
				Value:   "text",
				Sources: cli.EnvVars("XLIMITSIM_LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，为空时输出到 stderr",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, st.setupLogger(cmd)
		},
		After: func(_ context.Context, _ *cli.Command) error {
			if st.closeLog == nil {
				return nil
			}
			return st.closeLog()
		},
		Commands: createCommands(st),
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一处理退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, _ error) {},
	}
}

func (st *state) setupLogger(cmd *cli.Command) error {
	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cmd.String("log-level")).
		SetFormat(cmd.String("log-format"))
	if file := cmd.String("log-file"); file != "" {
		b = b.SetRotation(file)
	}

	logger, closeLog, err := b.Build()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	st.logger = logger
	st.closeLog = closeLog
	return nil
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
