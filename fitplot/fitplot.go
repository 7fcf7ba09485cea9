// Package fitplot renders diagnostic plots of fitted surfaces with gonum/plot.
//
// The image format is taken from the file extension of the output path (png, svg, pdf, ...).
package fitplot

import (
	"image/color"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/surfacemetrology/surfacefit/surface"
	"github.com/surfacemetrology/surfacefit/utils"
)

var (
	dataColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	modelColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}

	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

// finiteXYs pairs xs and ys, dropping any pair with a non-finite coordinate.
func finiteXYs(xs, ys []float64) plotter.XYs {
	out := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if !utils.IsFinite(xs[i]) || !utils.IsFinite(ys[i]) {
			continue
		}
		out = append(out, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return out
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func addScatter(p *plot.Plot, label string, xys plotter.XYs, c color.Color) error {
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2)
	p.Add(s)
	p.Legend.Add(label, s)
	return nil
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "saving plot to %q", path)
	}
	return nil
}

// Profile plots the rotated (y, z) data against the model curve, both in the sample frame.
func Profile(ev *surface.Evaluation, title, path string) error {
	p := newPlot(title, "y (rotated)", "z (rotated)")
	if err := addScatter(p, "data", finiteXYs(ev.Y, ev.Z), dataColor); err != nil {
		return err
	}

	curve := finiteXYs(ev.Y, ev.Predicted)
	sort.Slice(curve, func(i, j int) bool { return curve[i].X < curve[j].X })
	if len(curve) > 0 {
		line, err := plotter.NewLine(curve)
		if err != nil {
			return err
		}
		line.Color = modelColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("model", line)
	}
	return save(p, path)
}

// Residuals plots the residual of every point against its rotated y coordinate.
func Residuals(ev *surface.Evaluation, title, path string) error {
	p := newPlot(title, "y (rotated)", "model − z")
	if err := addScatter(p, "residual", finiteXYs(ev.Y, ev.Residuals()), dataColor); err != nil {
		return err
	}
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = modelColor
	p.Add(zero)
	return save(p, path)
}

// TopView plots the x/y footprint of the points as measured.
func TopView(pts []r3.Vector, title, path string) error {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}
	p := newPlot(title, "x", "y")
	if err := addScatter(p, "markers", finiteXYs(xs, ys), dataColor); err != nil {
		return err
	}
	return save(p, path)
}
