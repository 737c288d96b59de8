package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	control "waypoint-mpc-core/closed_loop/tracking_control"
)

// WritePlots renders the run history as PNGs in dir: the tracking errors,
// the solve cost, the commanded actuation, the velocity profile, and the
// driven path against the reference waypoints.
func WritePlots(dir string, waypoints []control.Point, hist *History) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	series := []struct {
		file  string
		title string
		yAxis string
		data  []float64
	}{
		{"cte.png", "Cross-Track Error", "cte (m)", hist.Cte},
		{"epsi.png", "Heading Error", "epsi (rad)", hist.Epsi},
		{"cost.png", "Solve Cost", "cost", hist.Cost},
		{"steering.png", "Commanded Steering", "delta (rad)", hist.Delta},
		{"accel.png", "Commanded Acceleration", "accel (normalized)", hist.Accel},
		{"velocity.png", "Velocity", "v (m/s)", hist.V},
	}

	for _, s := range series {
		if err := writeSeriesPlot(filepath.Join(dir, s.file), s.title, s.yAxis, hist.T, s.data); err != nil {
			return err
		}
	}

	return writePathPlot(filepath.Join(dir, "path.png"), waypoints, hist)
}

func writeSeriesPlot(path, title, yAxis string, ts, ys []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = yAxis

	pts := make(plotter.XYs, len(ys))
	for i := range ys {
		pts[i] = plotter.XY{X: ts[i], Y: ys[i]}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot %s: %w", title, err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writePathPlot(path string, waypoints []control.Point, hist *History) error {
	p := plot.New()
	p.Title.Text = "Reference Path and Driven Trajectory"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	refPts := make(plotter.XYs, len(waypoints))
	for i, w := range waypoints {
		refPts[i] = plotter.XY{X: w.X, Y: w.Y}
	}
	refLine, err := plotter.NewLine(refPts)
	if err != nil {
		return fmt.Errorf("reference line: %w", err)
	}
	refLine.Width = vg.Points(1)
	p.Add(refLine)
	p.Legend.Add("reference", refLine)

	drivenPts := make(plotter.XYs, hist.Len())
	for i := 0; i < hist.Len(); i++ {
		drivenPts[i] = plotter.XY{X: hist.X[i], Y: hist.Y[i]}
	}
	driven, err := plotter.NewScatter(drivenPts)
	if err != nil {
		return fmt.Errorf("driven scatter: %w", err)
	}
	p.Add(driven)
	p.Legend.Add("driven", driven)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
