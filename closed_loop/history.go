package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	control "waypoint-mpc-core/closed_loop/tracking_control"
)

// History accumulates per-tick series for post-run inspection: the driven
// global pose, the tracking errors, the applied commands and the achieved
// solve cost. One row per control tick.
type History struct {
	Tick  []int
	T     []float64
	X     []float64
	Y     []float64
	Psi   []float64
	V     []float64
	Cte   []float64
	Epsi  []float64
	Delta []float64
	Accel []float64
	Cost  []float64
}

func (h *History) Record(tick int, t float64, pose control.Pose, st control.VehicleState, sol control.Solution) {
	h.Tick = append(h.Tick, tick)
	h.T = append(h.T, t)
	h.X = append(h.X, pose.X)
	h.Y = append(h.Y, pose.Y)
	h.Psi = append(h.Psi, pose.Psi)
	h.V = append(h.V, pose.V)
	h.Cte = append(h.Cte, st.Cte)
	h.Epsi = append(h.Epsi, st.Epsi)
	h.Delta = append(h.Delta, sol.Delta)
	h.Accel = append(h.Accel, sol.Accel)
	h.Cost = append(h.Cost, sol.Cost)
}

func (h *History) Len() int { return len(h.Tick) }

// writeHistoryCSV creates dir if needed and dumps the run history into it.
func writeHistoryCSV(dir string, h *History) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, "history.csv")
	return path, h.WriteCSV(path)
}

// WriteCSV dumps the run history, one row per tick.
func (h *History) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"tick", "t_s", "x_m", "y_m", "psi_rad", "v_mps",
		"cte_m", "epsi_rad", "delta_rad", "accel_norm", "cost",
	}); err != nil {
		return err
	}
	for i := range h.Tick {
		row := []string{
			fmt.Sprintf("%d", h.Tick[i]),
			fmt.Sprintf("%.3f", h.T[i]),
			fmt.Sprintf("%.6f", h.X[i]),
			fmt.Sprintf("%.6f", h.Y[i]),
			fmt.Sprintf("%.6f", h.Psi[i]),
			fmt.Sprintf("%.6f", h.V[i]),
			fmt.Sprintf("%.6f", h.Cte[i]),
			fmt.Sprintf("%.6f", h.Epsi[i]),
			fmt.Sprintf("%.6f", h.Delta[i]),
			fmt.Sprintf("%.6f", h.Accel[i]),
			fmt.Sprintf("%.6f", h.Cost[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
