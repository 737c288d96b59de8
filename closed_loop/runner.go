package main

import (
	"context"
	"fmt"
	"math"
	"time"

	control "waypoint-mpc-core/closed_loop/tracking_control"
	"waypoint-mpc-core/utils"
)

type RunnerConfig struct {
	ScenarioPath string
	Interface    string // SocketCAN interface; empty disables the actuation sink
	MapPath      string
	FrameName    string
	OutputDir    string
	WritePlots   bool
}

// Runner drives the receding-horizon loop. It owns the global pose and the
// waypoint set; every tick it re-fits the reference in the vehicle frame,
// solves one horizon, applies the first command pair and advances the pose by
// the predicted step-1 state. Single-threaded: a tick fully completes before
// the next begins.
type Runner struct {
	cfg    RunnerConfig
	log    *utils.Logger
	scen   Scenario
	mpc    *control.MPCController
	cmap   *utils.CANMap
	fd     *utils.FrameDef
	writer utils.CANWriter
	hist   *History
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	mpc, err := control.NewMPCController(scen.Config(), nil)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}

	r := &Runner{
		cfg:  cfg,
		log:  log,
		scen: scen,
		mpc:  mpc,
		hist: &History{},
	}

	if cfg.Interface != "" {
		cmap, err := utils.LoadCANMap(cfg.MapPath)
		if err != nil {
			return nil, fmt.Errorf("load can map: %w", err)
		}
		fd, err := cmap.FrameByName(cfg.FrameName)
		if err != nil {
			return nil, fmt.Errorf("frame: %w", err)
		}
		writer, err := utils.NewSocketCANWriter(ctx, cfg.Interface)
		if err != nil {
			return nil, err
		}
		r.cmap = cmap
		r.fd = fd
		r.writer = writer
	}

	return r, nil
}

func (r *Runner) Close() {
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

// History returns the recorded run series.
func (r *Runner) History() *History { return r.hist }

// Run executes the configured number of control ticks. A reference-fit
// failure commands zero actuation before surfacing the error; a solve failure
// surfaces immediately with nothing transmitted, because an unverified
// command must never reach a moving vehicle.
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.mpc.Config()
	pose := r.scen.InitialPose

	r.log.Info("Starting run: scenario=%s waypoints=%d ticks=%d N=%d dt=%.3f ref_v=%.1f iface=%q",
		r.scen.Meta.Name, len(r.scen.Waypoints), r.scen.Ticks,
		cfg.HorizonSteps, cfg.TimeStepS, cfg.TargetVelocityMPS, r.cfg.Interface)
	r.log.Info("Initial pose: x=%.3f y=%.3f psi=%.6f v=%.3f", pose.X, pose.Y, pose.Psi, pose.V)

	start := time.Now()

	for tick := 0; tick < r.scen.Ticks; tick++ {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled at tick %d", tick)
			return ctx.Err()
		default:
		}

		local := control.ToVehicleFrame(r.scen.Waypoints, pose)
		xs := make([]float64, len(local))
		ys := make([]float64, len(local))
		for i, p := range local {
			xs[i] = p.X
			ys[i] = p.Y
		}

		coeffs, err := control.Polyfit(xs, ys, cfg.FitOrder)
		if err != nil {
			r.log.Error("Tick %d: reference fit failed, commanding zero actuation: %v", tick, err)
			r.transmitZero(ctx, tick)
			return fmt.Errorf("tick %d: %w", tick, err)
		}

		// Measured state in the vehicle frame: origin, zero heading, the
		// fitted curve supplies cte and epsi at the local origin.
		st := control.VehicleState{
			V:    pose.V,
			Cte:  coeffs.Eval(0),
			Epsi: -math.Atan(coeffs.Slope(0)),
		}

		sol, err := r.mpc.Solve(st, coeffs)
		if err != nil {
			r.log.Critical("Tick %d: solve failed, no command issued: %v", tick, err)
			return fmt.Errorf("tick %d: %w", tick, err)
		}

		r.hist.Record(tick, float64(tick)*cfg.TimeStepS, pose, st, sol)
		r.log.Info("Tick %d: cte=%.4f epsi=%.4f v=%.3f delta=%.5f accel=%.4f cost=%.2f",
			tick, st.Cte, st.Epsi, pose.V, sol.Delta, sol.Accel, sol.Cost)

		if err := r.transmitCommand(ctx, tick, st, sol); err != nil {
			return err
		}

		pose = advancePose(pose, sol.NextState)
	}

	r.log.Info("Completed run: ticks=%d elapsed=%.2fs final pose x=%.3f y=%.3f v=%.3f",
		r.scen.Ticks, time.Since(start).Seconds(), pose.X, pose.Y, pose.V)

	return r.writeOutputs()
}

// advancePose composes the predicted step-1 state, expressed in this tick's
// vehicle frame, back onto the global pose.
func advancePose(pose control.Pose, next control.VehicleState) control.Pose {
	g := control.ToGlobalFrame(control.Point{X: next.X, Y: next.Y}, pose)
	return control.Pose{
		X:   g.X,
		Y:   g.Y,
		Psi: pose.Psi + next.Psi,
		V:   next.V,
	}
}

func (r *Runner) transmitCommand(ctx context.Context, tick int, st control.VehicleState, sol control.Solution) error {
	if r.writer == nil {
		return nil
	}
	values := map[string]float64{
		"steer_cmd_rad":     sol.Delta,
		"accel_cmd_norm":    sol.Accel,
		"cross_track_err_m": st.Cte,
		"solve_cost":        sol.Cost,
	}
	frame, err := r.cmap.EncodeFrame(r.fd.Name, values)
	if err != nil {
		return fmt.Errorf("tick %d: encode: %w", tick, err)
	}
	if err := r.writer.WriteFrame(ctx, frame); err != nil {
		return fmt.Errorf("tick %d: transmit: %w", tick, err)
	}
	r.log.Trace("TX tick=%d id=0x%X data=% X", tick, uint32(frame.ID), frame.Data[:frame.Length])
	return nil
}

// transmitZero sends the explicit zero-actuation safe command. Used when a
// tick cannot produce a verified command but the bus still expects a frame.
func (r *Runner) transmitZero(ctx context.Context, tick int) {
	if r.writer == nil {
		return
	}
	frame, err := r.cmap.EncodeFrame(r.fd.Name, map[string]float64{
		"steer_cmd_rad":  0,
		"accel_cmd_norm": 0,
	})
	if err != nil {
		r.log.Error("Tick %d: zero-command encode failed: %v", tick, err)
		return
	}
	if err := r.writer.WriteFrame(ctx, frame); err != nil {
		r.log.Error("Tick %d: zero-command transmit failed: %v", tick, err)
	}
}

func (r *Runner) writeOutputs() error {
	if r.cfg.OutputDir == "" {
		return nil
	}
	csvPath, err := writeHistoryCSV(r.cfg.OutputDir, r.hist)
	if err != nil {
		return err
	}
	r.log.Info("History written to %s", csvPath)

	if r.cfg.WritePlots {
		if err := WritePlots(r.cfg.OutputDir, r.scen.Waypoints, r.hist); err != nil {
			return fmt.Errorf("write plots: %w", err)
		}
		r.log.Info("Plots written to %s", r.cfg.OutputDir)
	}
	return nil
}
