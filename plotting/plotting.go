// Package plotting renders training diagnostics with gonum/plot.
//
// The output format follows the file extension of path (.png, .svg, .pdf, ...).
package plotting

import (
	"image/color"
	"math"

	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

var (
	dataColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	fitColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// RegressionPlot draws the samples as a scatter with the fitted line over
// the mileage range and saves it to path.
func RegressionPlot(p linear.Params, mileage, price []float64, path string) error {
	if len(mileage) != len(price) {
		return errors.NewInputShapeError("plotting.RegressionPlot", len(mileage), len(price))
	}
	if len(mileage) == 0 {
		return errors.NewEmptyInputError("plotting.RegressionPlot")
	}

	pl := plot.New()
	pl.Title.Text = "Price vs Mileage"
	pl.X.Label.Text = "Mileage (km)"
	pl.Y.Label.Text = "Price"
	pl.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(mileage))
	for i := range mileage {
		pts[i].X = mileage[i]
		pts[i].Y = price[i]
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "build scatter")
	}
	scatter.GlyphStyle.Color = dataColor
	scatter.GlyphStyle.Radius = vg.Points(3)

	lo, hi := floats.Min(mileage), floats.Max(mileage)
	fit, err := plotter.NewLine(plotter.XYs{
		{X: lo, Y: p.Predict(lo)},
		{X: hi, Y: p.Predict(hi)},
	})
	if err != nil {
		return errors.Wrap(err, "build regression line")
	}
	fit.LineStyle.Color = fitColor
	fit.LineStyle.Width = vg.Points(2)

	pl.Add(scatter, fit)
	pl.Legend.Add("Data", scatter)
	pl.Legend.Add("Regression line", fit)
	pl.Legend.Top = true

	return save(pl, path)
}

// CostPlot draws the cost recorded at each iteration and saves it to path.
// The curve stops at the first NaN or Inf, so a diverged run is drawn up to
// the point where it blew up.
func CostPlot(history []float64, path string) error {
	history = finitePrefix(history)
	if len(history) == 0 {
		return errors.NewEmptyInputError("plotting.CostPlot")
	}

	pl := plot.New()
	pl.Title.Text = "Cost over iterations"
	pl.X.Label.Text = "Iteration"
	pl.Y.Label.Text = "Cost"
	pl.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(history))
	for i, c := range history {
		pts[i].X = float64(i)
		pts[i].Y = c
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "build cost line")
	}
	line.LineStyle.Color = dataColor
	line.LineStyle.Width = vg.Points(1.5)
	pl.Add(line)

	return save(pl, path)
}

func save(pl *plot.Plot, path string) error {
	if err := pl.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

func finitePrefix(xs []float64) []float64 {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return xs[:i]
		}
	}
	return xs
}
