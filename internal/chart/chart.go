// Package chart 将仿真结果渲染为 PNG 折线图。
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// 图片尺寸（像素）与分辨率
const (
	Width  = 1024
	Height = 768
	DPI    = 96
)

var (
	// ErrEmptySeries 表示没有可绘制的数据点
	ErrEmptySeries = errors.New("chart: empty series")

	// ErrLengthMismatch 表示放行与拒绝序列长度不一致
	ErrLengthMismatch = errors.New("chart: series length mismatch")

	allowedColor = color.RGBA{B: 255, A: 255}
	deniedColor  = color.RGBA{R: 255, A: 255}
)

// Render 绘制每秒放行/拒绝数折线图并写入 path
//
// x 轴为秒序号 [0, len)，y 轴范围 [0, yMax]。path 的父目录必须存在。
func Render(path, title string, allowed, denied []uint64, yMax uint64) error {
	if len(allowed) == 0 {
		return ErrEmptySeries
	}
	if len(allowed) != len(denied) {
		return fmt.Errorf("%w: allowed=%d denied=%d", ErrLengthMismatch, len(allowed), len(denied))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Requests"
	p.X.Min = 0
	p.X.Max = float64(len(allowed))
	p.Y.Min = 0
	p.Y.Max = float64(max(yMax, 1))
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := addSeries(p, "Allowed", allowed, allowedColor); err != nil {
		return err
	}
	if err := addSeries(p, "Denied", denied, deniedColor); err != nil {
		return err
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(pixels(Width), pixels(Height)),
		vgimg.UseDPI(DPI),
	)
	p.Draw(draw.New(canvas))

	return writePNG(path, canvas)
}

func addSeries(p *plot.Plot, name string, values []uint64, c color.Color) error {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = float64(v)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("chart: %s series: %w", name, err)
	}
	line.Color = c
	line.Width = vg.Points(2)

	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func writePNG(path string, canvas *vgimg.Canvas) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("chart: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("chart: close %s: %w", path, cerr)
		}
	}()

	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(f); err != nil {
		return fmt.Errorf("chart: encode %s: %w", path, err)
	}
	return nil
}

// pixels 将像素数换算为给定 DPI 下的长度
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / DPI
}
