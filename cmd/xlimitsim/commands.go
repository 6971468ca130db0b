package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xthrottle/internal/simulate"
	"github.com/omeyang/xthrottle/pkg/config/xconf"
	"github.com/omeyang/xthrottle/pkg/observability/xmetrics"
)

// 创建所有子命令。
func createCommands(st *state) []*cli.Command {
	return []*cli.Command{
		createRunCommand(st),
		createListCommand(),
	}
}

func scenarioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "场景配置文件 (YAML/JSON，键 scenarios)，为空时使用内置场景",
		},
		&cli.StringSliceFlag{
			Name:  "only",
			Usage: "只运行指定名称的场景，可重复",
		},
	}
}

// createRunCommand 创建 run 子命令。
func createRunCommand(st *state) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "运行场景并输出 PNG 图表",
		Flags: append(scenarioFlags(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "图表输出目录",
				Value:   simulate.DefaultOutDir,
			},
			&cli.IntFlag{
				Name:    "parallel",
				Aliases: []string{"p"},
				Usage:   "同时运行的场景数",
				Value:   simulate.DefaultParallel,
			},
			&cli.DurationFlag{
				Name:  "step",
				Usage: "一个仿真秒对应的真实时长",
				Value: simulate.DefaultStep,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdRun(ctx, st, cmd)
		},
	}
}

// createListCommand 创建 list 子命令。
func createListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "列出场景及其输出文件名",
		Flags: scenarioFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			scenarios, err := selectScenarios(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tALGORITHM\tCAPACITY\tSECONDS\tFILE")
			for _, s := range scenarios {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					s.Key(), s.Algorithm, s.Capacity, len(s.Requests), s.FileName())
			}
			return w.Flush()
		},
	}
}

func cmdRun(ctx context.Context, st *state, cmd *cli.Command) error {
	scenarios, err := selectScenarios(cmd)
	if err != nil {
		return err
	}

	observer, err := xmetrics.NewOTelObserver(xmetrics.WithInstrumentationName("xlimitsim"))
	if err != nil {
		return err
	}

	runner, err := simulate.NewRunner(
		simulate.WithOutputDir(cmd.String("out")),
		simulate.WithParallel(cmd.Int("parallel")),
		simulate.WithStep(cmd.Duration("step")),
		simulate.WithLogger(st.logger),
		simulate.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	results, err := runner.RunAll(ctx, scenarios)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tALLOWED\tDENIED\tCHART")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			res.Scenario.Key(), res.Tally.TotalAllowed(), res.Tally.TotalDenied(), res.Path)
	}
	return w.Flush()
}

// selectScenarios 加载场景并按 --only 筛选
func selectScenarios(cmd *cli.Command) ([]simulate.Scenario, error) {
	scenarios := simulate.DefaultScenarios()
	if path := cmd.String("config"); path != "" {
		cfg, err := xconf.New(path)
		if err != nil {
			return nil, err
		}
		if scenarios, err = simulate.LoadScenarios(cfg); err != nil {
			return nil, err
		}
	}
	return simulate.Filter(scenarios, cmd.StringSlice("only"))
}
