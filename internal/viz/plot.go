package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/gridflow/internal/storage"
)

// logErrors maps step errors to log10. Zero errors, which a run that starts
// at its solution produces, are drawn at the smallest positive error.
func logErrors(history []float64) []float64 {
	floor := math.Inf(1)
	for _, e := range history {
		if e > 0 && e < floor {
			floor = e
		}
	}
	if math.IsInf(floor, 1) {
		floor = 1e-16
	}

	out := make([]float64, len(history))
	for i, e := range history {
		out[i] = math.Log10(math.Max(e, floor))
	}
	return out
}

// ErrorPlot charts log10 of the step error per iteration.
func ErrorPlot(history []float64) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("no iterations to plot")
	}
	data := logErrors(history)
	if len(data) == 1 {
		data = append(data, data[0])
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption("log10 step error per iteration"),
	), nil
}

// VoltagePlot charts |V| in bus order.
func VoltagePlot(buses []storage.BusRecord) (string, error) {
	if len(buses) == 0 {
		return "", fmt.Errorf("no buses to plot")
	}
	data := make([]float64, len(buses))
	for i, b := range buses {
		data[i] = b.Vm
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption("bus voltage magnitude (pu)"),
	), nil
}

// SavePNG writes the convergence chart to path. The image format follows
// the file extension.
func SavePNG(path, title string, history []float64) error {
	if len(history) == 0 {
		return fmt.Errorf("no iterations to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "log10 step error"

	pts := make(plotter.XYs, len(history))
	for i, e := range logErrors(history) {
		pts[i].X = float64(i + 1)
		pts[i].Y = e
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	p.Add(line, points, plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
