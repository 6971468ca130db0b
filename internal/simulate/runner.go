package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xthrottle/internal/chart"
	"github.com/omeyang/xthrottle/pkg/observability/xlog"
	"github.com/omeyang/xthrottle/pkg/observability/xmetrics"
	"github.com/omeyang/xthrottle/pkg/resilience/xlimit"
)

// Result 单个场景的运行结果
type Result struct {
	Scenario Scenario
	Tally    Tally
	Path     string
	Elapsed  time.Duration
}

// Runner 并发运行场景并渲染图表
type Runner struct {
	opts    *options
	metrics *xlimit.Metrics
}

// NewRunner 创建场景运行器
func NewRunner(opts ...Option) (*Runner, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	metrics, err := xlimit.NewMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("simulate: create metrics: %w", err)
	}
	return &Runner{opts: o, metrics: metrics}, nil
}

// RunAll 运行所有场景，最多 parallel 个同时进行
//
// 任一场景失败（包括图表渲染失败）会取消其余场景并返回第一个错误。
// 返回的结果与 scenarios 顺序一致，失败或被取消的场景对应零值。
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	if err := validateAll(scenarios); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.opts.outDir, 0o750); err != nil {
		return nil, fmt.Errorf("simulate: create output dir: %w", err)
	}

	results := make([]Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.parallel)

	for i, s := range scenarios {
		g.Go(func() error {
			res, err := r.Run(gctx, s)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Run 运行单个场景并渲染图表
func (r *Runner) Run(ctx context.Context, s Scenario) (result Result, err error) {
	ctx, span := xmetrics.Start(ctx, r.opts.observer, xmetrics.SpanOptions{
		Component: "simulate",
		Operation: "scenario",
		Kind:      xmetrics.KindInternal,
		Attrs: []xmetrics.Attr{
			xmetrics.String("scenario", s.Key()),
			xmetrics.String("algorithm", s.Algorithm.String()),
			xmetrics.Uint64("capacity", s.Capacity),
		},
	})
	defer func() {
		span.End(xmetrics.Result{
			Err: err,
			Attrs: []xmetrics.Attr{
				xmetrics.Uint64("allowed", result.Tally.TotalAllowed()),
				xmetrics.Uint64("denied", result.Tally.TotalDenied()),
			},
		})
	}()

	logger := r.opts.logger.With(slog.String("scenario", s.Key()))
	start := r.opts.clock.Now()

	limiter, err := xlimit.New(r.scaledConfig(s),
		xlimit.WithLogger(logger),
		xlimit.WithMetrics(r.metrics),
	)
	if err != nil {
		return Result{}, fmt.Errorf("simulate: scenario %s: %w", s.Key(), err)
	}

	logger.Info(ctx, "scenario started", slog.Int("seconds", len(s.Requests)))
	tally, err := Run(ctx, limiter, s.Requests, WithStep(r.opts.step), WithClock(r.opts.clock))
	if err != nil {
		return Result{Scenario: s, Tally: tally}, fmt.Errorf("simulate: scenario %s: %w", s.Key(), err)
	}

	path := filepath.Join(r.opts.outDir, s.FileName())
	if err := chart.Render(path, s.Title(), tally.Allowed, tally.Denied, s.YMax()); err != nil {
		logger.Error(ctx, "render chart failed", xlog.Err(err))
		return Result{Scenario: s, Tally: tally}, fmt.Errorf("simulate: scenario %s: %w", s.Key(), err)
	}

	result = Result{
		Scenario: s,
		Tally:    tally,
		Path:     path,
		Elapsed:  r.opts.clock.Since(start),
	}
	logger.Info(ctx, "scenario finished",
		slog.Uint64("allowed", tally.TotalAllowed()),
		slog.Uint64("denied", tally.TotalDenied()),
		slog.String("path", path),
	)
	return result, nil
}

// scaledConfig 将以 1s 为单位的场景配置按 step 缩放
func (r *Runner) scaledConfig(s Scenario) xlimit.Config {
	cfg := s.Config()
	cfg.Tick = r.opts.step
	if cfg.Algorithm.Windowed() && cfg.Window > 0 {
		cfg.Window = max(scale(cfg.Window, r.opts.step), time.Nanosecond)
	}
	return cfg
}

func scale(d, step time.Duration) time.Duration {
	return time.Duration(float64(d) * float64(step) / float64(time.Second))
}
