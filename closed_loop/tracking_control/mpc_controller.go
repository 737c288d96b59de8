package control

import (
	"fmt"
	"math"
)

// Non-actuator decision variables stay effectively unbounded.
const stateBound = 1.0e19

// Slack on actuator range checks against the solved vector, to absorb solver
// rounding at an active bound.
const boundSlack = 1e-6

// Solution is one solved horizon. NextState is the prediction one timestep
// ahead; Delta and Accel are the first actuation pair, the only commands the
// receding-horizon loop applies. Predicted carries the full (x, y) sequence
// for diagnostics and is discarded each tick.
type Solution struct {
	NextState VehicleState
	Delta     float64 // steering command, radians
	Accel     float64 // acceleration command, normalized
	Cost      float64
	Predicted []Point
}

// MPCController formulates and solves one receding-horizon problem per call.
// It holds no state between solves.
type MPCController struct {
	cfg    MPCConfig
	solver Solver
}

// NewMPCController validates the configuration and wires the solver backend.
// A nil solver selects the SLSQP default.
func NewMPCController(cfg MPCConfig, solver Solver) (*MPCController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		solver = NewNloptSolver()
	}
	return &MPCController{cfg: cfg, solver: solver}, nil
}

// Config returns the controller's tuning.
func (c *MPCController) Config() MPCConfig { return c.cfg }

// Solve optimizes one horizon from the measured state against the reference
// polynomial. On failure no command is produced; the error is a SolveError
// and the caller must not fall back to a stale actuation.
func (c *MPCController) Solve(state VehicleState, ref Polynomial) (Solution, error) {
	p := NewProblem(c.cfg, state, ref)
	l := p.Layout()
	n := l.NumVars()

	// Zero initial guess apart from the measured state in the step-0 slots.
	guess := make([]float64, n)
	guess[l.X(0)] = state.X
	guess[l.Y(0)] = state.Y
	guess[l.Psi(0)] = state.Psi
	guess[l.V(0)] = state.V
	guess[l.Cte(0)] = state.Cte
	guess[l.Epsi(0)] = state.Epsi

	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := 0; i < l.DeltaStart; i++ {
		lower[i] = -stateBound
		upper[i] = stateBound
	}
	for i := l.DeltaStart; i < l.AStart; i++ {
		lower[i] = -c.cfg.SteerBoundRad
		upper[i] = c.cfg.SteerBoundRad
	}
	for i := l.AStart; i < n; i++ {
		lower[i] = -c.cfg.AccelBound
		upper[i] = c.cfg.AccelBound
	}

	x, cost, err := c.solver.Minimize(p, guess, lower, upper)
	if err != nil {
		return Solution{}, err
	}

	delta := x[l.Delta(0)]
	accel := x[l.Accel(0)]
	if math.Abs(delta) > c.cfg.SteerBoundRad+boundSlack || math.Abs(accel) > c.cfg.AccelBound+boundSlack {
		return Solution{}, &SolveError{
			Reason: fmt.Sprintf("command outside actuator bounds: delta=%.6f accel=%.6f", delta, accel),
		}
	}

	predicted := make([]Point, l.N)
	for i := 0; i < l.N; i++ {
		predicted[i] = Point{X: x[l.X(i)], Y: x[l.Y(i)]}
	}

	return Solution{
		NextState: VehicleState{
			X:    x[l.X(1)],
			Y:    x[l.Y(1)],
			Psi:  x[l.Psi(1)],
			V:    x[l.V(1)],
			Cte:  x[l.Cte(1)],
			Epsi: x[l.Epsi(1)],
		},
		Delta:     delta,
		Accel:     accel,
		Cost:      cost,
		Predicted: predicted,
	}, nil
}
