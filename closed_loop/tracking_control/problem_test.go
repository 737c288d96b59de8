package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarLayoutOffsets(t *testing.T) {
	t.Parallel()

	l := NewVarLayout(5)

	assert.Equal(t, 0, l.XStart)
	assert.Equal(t, 5, l.YStart)
	assert.Equal(t, 10, l.PsiStart)
	assert.Equal(t, 15, l.VStart)
	assert.Equal(t, 20, l.CteStart)
	assert.Equal(t, 25, l.EpsiStart)
	assert.Equal(t, 30, l.DeltaStart)
	assert.Equal(t, 34, l.AStart)
	assert.Equal(t, 38, l.NumVars())
	assert.Equal(t, 30, l.NumConstraints())

	// Blocks are contiguous and non-overlapping: walking every accessor over
	// its valid range must touch each index exactly once.
	seen := make(map[int]int)
	for i := 0; i < l.N; i++ {
		for _, idx := range []int{l.X(i), l.Y(i), l.Psi(i), l.V(i), l.Cte(i), l.Epsi(i)} {
			seen[idx]++
		}
	}
	for i := 0; i < l.N-1; i++ {
		seen[l.Delta(i)]++
		seen[l.Accel(i)]++
	}
	require.Len(t, seen, l.NumVars())
	for idx, count := range seen {
		assert.Equal(t, 1, count, "index %d", idx)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, l.NumVars())
	}
}

func TestPropagateStraightLineNoActuation(t *testing.T) {
	t.Parallel()

	ref := Polynomial{0, 0, 0, 0}
	dt := 0.05
	lf := DefaultWheelbaseLfM

	s := VehicleState{X: 1.0, Y: 2.0, Psi: 0.6, V: 10.0}
	next := Propagate(s, 0, 0, ref, lf, dt)

	assert.InDelta(t, s.X+s.V*math.Cos(s.Psi)*dt, next.X, 1e-12)
	assert.InDelta(t, s.Y+s.V*math.Sin(s.Psi)*dt, next.Y, 1e-12)
	assert.InDelta(t, s.Psi, next.Psi, 1e-12)
	assert.InDelta(t, s.V, next.V, 1e-12)
}

func TestPropagateErrorDynamics(t *testing.T) {
	t.Parallel()

	// Reference y = 1 + 2x: f(0)=1, atan(f'(0))=atan(2).
	ref := Polynomial{1, 2}
	dt := 0.1
	lf := 2.0

	s := VehicleState{V: 5.0, Psi: 0.3, Epsi: 0.2}
	delta := 0.1
	next := Propagate(s, delta, 0.5, ref, lf, dt)

	assert.InDelta(t, (1.0-0.0)+5.0*math.Sin(0.2)*0.1, next.Cte, 1e-12)
	assert.InDelta(t, (0.3-math.Atan(2.0))+5.0*0.1/2.0*0.1, next.Epsi, 1e-12)
	assert.InDelta(t, 0.3+5.0/2.0*0.1*0.1, next.Psi, 1e-12)
	assert.InDelta(t, 5.0+0.5*0.1, next.V, 1e-12)
}

// fillState writes a state into the decision vector at horizon step i.
func fillState(vars []float64, l VarLayout, i int, s VehicleState) {
	vars[l.X(i)] = s.X
	vars[l.Y(i)] = s.Y
	vars[l.Psi(i)] = s.Psi
	vars[l.V(i)] = s.V
	vars[l.Cte(i)] = s.Cte
	vars[l.Epsi(i)] = s.Epsi
}

func TestResidualsZeroOnPropagatedTrajectory(t *testing.T) {
	t.Parallel()

	cfg := DefaultMPCConfig()
	cfg.HorizonSteps = 4
	ref := Polynomial{0.5, 0.1, 0, 0}

	state := VehicleState{V: 8.0, Cte: ref.Eval(0), Epsi: -math.Atan(ref.Slope(0))}
	p := NewProblem(cfg, state, ref)
	l := p.Layout()

	// Build a decision vector by forward-propagating the measured state with
	// a nonzero actuation sequence; every residual must vanish on it.
	vars := make([]float64, l.NumVars())
	deltas := []float64{0.05, -0.02, 0.01}
	accels := []float64{0.3, 0.3, -0.1}

	s := state
	fillState(vars, l, 0, s)
	for i := 0; i < l.N-1; i++ {
		vars[l.Delta(i)] = deltas[i]
		vars[l.Accel(i)] = accels[i]
		s = Propagate(s, deltas[i], accels[i], ref, cfg.WheelbaseLfM, cfg.TimeStepS)
		fillState(vars, l, i+1, s)
	}

	res := make([]float64, l.NumConstraints())
	p.Residuals(res, vars)
	for i, r := range res {
		assert.InDelta(t, 0.0, r, 1e-12, "residual %d", i)
	}
}

func TestResidualsAnchorPinsMeasuredState(t *testing.T) {
	t.Parallel()

	cfg := DefaultMPCConfig()
	cfg.HorizonSteps = 3
	state := VehicleState{X: 0.5, Y: -0.25, Psi: 0.1, V: 9.0, Cte: 1.5, Epsi: -0.05}
	p := NewProblem(cfg, state, Polynomial{0, 0, 0, 0})
	l := p.Layout()

	vars := make([]float64, l.NumVars())
	res := make([]float64, l.NumConstraints())
	p.Residuals(res, vars)

	// With a zero vector the anchors read back the negated measured state.
	assert.InDelta(t, -state.X, res[l.X(0)], 1e-12)
	assert.InDelta(t, -state.Y, res[l.Y(0)], 1e-12)
	assert.InDelta(t, -state.Psi, res[l.Psi(0)], 1e-12)
	assert.InDelta(t, -state.V, res[l.V(0)], 1e-12)
	assert.InDelta(t, -state.Cte, res[l.Cte(0)], 1e-12)
	assert.InDelta(t, -state.Epsi, res[l.Epsi(0)], 1e-12)

	// Writing the measured state into the step-0 slots zeroes the anchors.
	fillState(vars, l, 0, state)
	p.Residuals(res, vars)
	for _, idx := range []int{l.X(0), l.Y(0), l.Psi(0), l.V(0), l.Cte(0), l.Epsi(0)} {
		assert.InDelta(t, 0.0, res[idx], 1e-12)
	}
}

func TestCostTerms(t *testing.T) {
	t.Parallel()

	cfg := DefaultMPCConfig()
	cfg.HorizonSteps = 3
	cfg.TargetVelocityMPS = 10.0
	p := NewProblem(cfg, VehicleState{}, Polynomial{0})
	l := p.Layout()

	vars := make([]float64, l.NumVars())
	for i := 0; i < l.N; i++ {
		vars[l.V(i)] = cfg.TargetVelocityMPS
	}

	// Perfect tracking, zero actuation: zero cost.
	require.Equal(t, 0.0, p.Cost(vars))

	// One cte unit on one step adds exactly its squared weight.
	vars[l.Cte(1)] = 2.0
	assert.InDelta(t, 4.0, p.Cost(vars), 1e-12)
	vars[l.Cte(1)] = 0

	// A lone first-step steering command is charged for magnitude and for
	// the jump to the second step.
	vars[l.Delta(0)] = 0.3
	assert.InDelta(t, 0.09+0.09, p.Cost(vars), 1e-12)

	// Velocity shortfall is charged against the target.
	vars[l.Delta(0)] = 0
	vars[l.V(2)] = 8.0
	assert.InDelta(t, 4.0, p.Cost(vars), 1e-12)
}

func TestCostWeights(t *testing.T) {
	t.Parallel()

	cfg := DefaultMPCConfig()
	cfg.HorizonSteps = 2
	cfg.TargetVelocityMPS = 0
	cfg.WeightSteer = 5.0
	p := NewProblem(cfg, VehicleState{}, Polynomial{0})
	l := p.Layout()

	vars := make([]float64, l.NumVars())
	vars[l.Delta(0)] = 2.0
	// N=2 has a single actuation step, so no smoothness term applies.
	assert.InDelta(t, 20.0, p.Cost(vars), 1e-12)
}
