package control

import (
	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	// Step for the forward-difference gradients. The step direction flips
	// when it would leave the variable's bound box.
	fdJump = 1e-7

	defaultMaxEval     = 5000
	defaultResidualTol = 1e-6
)

// Solver is the external NLP backend contract: minimize the problem cost
// subject to its equality residuals and the per-variable bounds, starting
// from guess. Implementations return the optimized vector and the achieved
// cost, or an error when no verified solution exists.
type Solver interface {
	Minimize(p *Problem, guess, lower, upper []float64) (x []float64, cost float64, err error)
}

// NloptSolver solves the horizon NLP with SLSQP. The kinematic equations go
// in as vector equality constraints and gradients are supplied by forward
// differences evaluated inside the callbacks.
type NloptSolver struct {
	// MaxEval caps objective evaluations per solve; the configured CPU-time
	// budget caps wall time. Hitting either returns the best point found so
	// far rather than an error.
	MaxEval     int
	ResidualTol float64
}

// NewNloptSolver returns a solver with the default evaluation cap and
// residual tolerance.
func NewNloptSolver() *NloptSolver {
	return &NloptSolver{
		MaxEval:     defaultMaxEval,
		ResidualTol: defaultResidualTol,
	}
}

// Minimize implements Solver.
func (s *NloptSolver) Minimize(p *Problem, guess, lower, upper []float64) ([]float64, float64, error) {
	l := p.Layout()
	n := l.NumVars()
	if len(guess) != n {
		return nil, 0, &ConfigError{Field: "guess", Reason: "length does not match decision-vector layout"}
	}
	if len(lower) != n || len(upper) != n {
		return nil, 0, &ConfigError{Field: "bounds", Reason: "length does not match decision-vector layout"}
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(n))
	if err != nil {
		return nil, 0, &SolveError{Reason: "nlopt creation", Err: errors.Wrap(err, "new SLSQP instance")}
	}
	defer opt.Destroy()

	objective := func(x, gradient []float64) float64 {
		cost := p.Cost(x)
		if len(gradient) > 0 {
			s.costGradient(p, x, cost, gradient, upper)
		}
		return cost
	}

	m := l.NumConstraints()
	scratch := make([]float64, m)
	residuals := func(result, x, gradient []float64) {
		p.Residuals(result, x)
		if len(gradient) > 0 {
			s.residualJacobian(p, x, result, scratch, gradient, upper)
		}
	}

	tol := make([]float64, m)
	for i := range tol {
		tol[i] = s.ResidualTol
	}

	err = multierr.Combine(
		opt.SetLowerBounds(lower),
		opt.SetUpperBounds(upper),
		opt.SetMinObjective(objective),
		opt.AddEqualityMConstraint(residuals, tol),
		opt.SetMaxEval(s.MaxEval),
		opt.SetMaxTime(p.cfg.SolverBudgetS),
		opt.SetFtolRel(1e-9),
		opt.SetXtolRel(1e-9),
	)
	if err != nil {
		return nil, 0, &SolveError{Reason: "solver setup", Err: err}
	}

	x, cost, err := opt.Optimize(append([]float64(nil), guess...))
	if err != nil {
		return nil, 0, &SolveError{Reason: "optimization failed", Err: err}
	}
	return x, cost, nil
}

// costGradient fills gradient[j] = dCost/dx_j by forward differences around
// base, stepping backwards for variables sitting against their upper bound.
func (s *NloptSolver) costGradient(p *Problem, x []float64, base float64, gradient, upper []float64) {
	probe := append([]float64(nil), x...)
	for j := range gradient {
		h := fdJump
		if probe[j]+h > upper[j] {
			h = -h
		}
		probe[j] = x[j] + h
		gradient[j] = (p.Cost(probe) - base) / h
		probe[j] = x[j]
	}
}

// residualJacobian fills the row-major m-by-n jacobian expected by nlopt:
// gradient[i*n+j] = dResidual_i/dx_j.
func (s *NloptSolver) residualJacobian(p *Problem, x, base, scratch, gradient, upper []float64) {
	n := len(x)
	probe := append([]float64(nil), x...)
	for j := 0; j < n; j++ {
		h := fdJump
		if probe[j]+h > upper[j] {
			h = -h
		}
		probe[j] = x[j] + h
		p.Residuals(scratch, probe)
		for i := range scratch {
			gradient[i*n+j] = (scratch[i] - base[i]) / h
		}
		probe[j] = x[j]
	}
}
