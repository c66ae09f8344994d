package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/robotalks/msp.go/pkg/vibration"
)

// Plot sizes.
var (
	PlotWidth  = 10 * vg.Inch
	PlotHeight = 5 * vg.Inch
)

var axisColors = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
}

// Plot draws the measured samples of each axis against the sample index.
func Plot(r *vibration.Report) (*plot.Plot, error) {
	if r.Samples == nil || r.Samples.Len() == 0 {
		return nil, fmt.Errorf("report %s has no samples", r.RunID)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Acceleration samples, motor %d @ %d", r.Motor, r.PWM)
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "accel (g)"
	p.Add(plotter.NewGrid())

	axes := []struct {
		name   string
		values []float64
	}{
		{"x", r.Samples.X()},
		{"y", r.Samples.Y()},
		{"z", r.Samples.Z()},
	}
	for i, axis := range axes {
		pts := make(plotter.XYs, len(axis.values))
		for n, v := range axis.values {
			pts[n] = plotter.XY{X: float64(n), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("create %s line: %w", axis.name, err)
		}
		line.Color = axisColors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(axis.name, line)
	}
	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SavePlot saves the plot of r to file, the format follows the extension.
func SavePlot(r *vibration.Report, file string) error {
	p, err := Plot(r)
	if err != nil {
		return err
	}
	if err = p.Save(PlotWidth, PlotHeight, file); err != nil {
		return fmt.Errorf("save plot %s: %w", file, err)
	}
	return nil
}

// WritePNG writes the plot of r as PNG.
func WritePNG(w io.Writer, r *vibration.Report) error {
	p, err := Plot(r)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotWidth, PlotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
