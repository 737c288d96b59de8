package control

import "math"

// VehicleState is the six-component kinematic state the horizon plans over.
// All fields are expressed in one consistent frame; the control loop resets
// that frame to the vehicle origin with zero heading every tick.
type VehicleState struct {
	X    float64
	Y    float64
	Psi  float64
	V    float64
	Cte  float64
	Epsi float64
}

// Problem is one tick's NLP: the horizon cost and the kinematic equality
// residuals, closed over the measured state and the reference polynomial.
// Both evaluators are pure arithmetic over the decision vector, so numeric
// differentiation of either is well-defined.
type Problem struct {
	cfg    MPCConfig
	state  VehicleState
	ref    Polynomial
	layout VarLayout
}

// NewProblem builds the formulation for one solve. The reference polynomial
// is consumed read-only for the lifetime of the problem.
func NewProblem(cfg MPCConfig, state VehicleState, ref Polynomial) *Problem {
	return &Problem{
		cfg:    cfg,
		state:  state,
		ref:    ref,
		layout: NewVarLayout(cfg.HorizonSteps),
	}
}

// Layout returns the decision-vector layout of this problem.
func (p *Problem) Layout() VarLayout { return p.layout }

// Cost sums the weighted tracking, actuation-magnitude and
// actuation-smoothness terms over the horizon.
func (p *Problem) Cost(vars []float64) float64 {
	l := p.layout
	cost := 0.0

	for i := 0; i < l.N; i++ {
		cte := vars[l.Cte(i)]
		epsi := vars[l.Epsi(i)]
		dv := vars[l.V(i)] - p.cfg.TargetVelocityMPS
		cost += p.cfg.WeightCte*cte*cte + p.cfg.WeightEpsi*epsi*epsi + p.cfg.WeightVelocity*dv*dv
	}

	for i := 0; i < l.N-1; i++ {
		delta := vars[l.Delta(i)]
		accel := vars[l.Accel(i)]
		cost += p.cfg.WeightSteer*delta*delta + p.cfg.WeightAccel*accel*accel
	}

	for i := 0; i < l.N-2; i++ {
		dDelta := vars[l.Delta(i+1)] - vars[l.Delta(i)]
		dAccel := vars[l.Accel(i+1)] - vars[l.Accel(i)]
		cost += p.cfg.WeightSteerRate*dDelta*dDelta + p.cfg.WeightAccelRate*dAccel*dAccel
	}

	return cost
}

// Residuals writes one residual per kinematic equation into dst, which must
// be Layout().NumConstraints() long. The six step-0 residuals anchor the
// horizon to the measured state; the remaining 6(N-1) are zero exactly when
// each predicted step equals the kinematic propagation of the previous one.
func (p *Problem) Residuals(dst, vars []float64) {
	l := p.layout

	dst[l.X(0)] = vars[l.X(0)] - p.state.X
	dst[l.Y(0)] = vars[l.Y(0)] - p.state.Y
	dst[l.Psi(0)] = vars[l.Psi(0)] - p.state.Psi
	dst[l.V(0)] = vars[l.V(0)] - p.state.V
	dst[l.Cte(0)] = vars[l.Cte(0)] - p.state.Cte
	dst[l.Epsi(0)] = vars[l.Epsi(0)] - p.state.Epsi

	for i := 0; i < l.N-1; i++ {
		prev := VehicleState{
			X:    vars[l.X(i)],
			Y:    vars[l.Y(i)],
			Psi:  vars[l.Psi(i)],
			V:    vars[l.V(i)],
			Cte:  vars[l.Cte(i)],
			Epsi: vars[l.Epsi(i)],
		}
		next := Propagate(prev, vars[l.Delta(i)], vars[l.Accel(i)], p.ref, p.cfg.WheelbaseLfM, p.cfg.TimeStepS)

		dst[l.X(i+1)] = vars[l.X(i+1)] - next.X
		dst[l.Y(i+1)] = vars[l.Y(i+1)] - next.Y
		dst[l.Psi(i+1)] = vars[l.Psi(i+1)] - next.Psi
		dst[l.V(i+1)] = vars[l.V(i+1)] - next.V
		dst[l.Cte(i+1)] = vars[l.Cte(i+1)] - next.Cte
		dst[l.Epsi(i+1)] = vars[l.Epsi(i+1)] - next.Epsi
	}
}

// Propagate advances the kinematic bicycle model by one timestep:
//
//	x'    = x + v*cos(psi)*dt
//	y'    = y + v*sin(psi)*dt
//	psi'  = psi + v/Lf*delta*dt
//	v'    = v + a*dt
//	cte'  = (f(x) - y) + v*sin(epsi)*dt
//	epsi' = (psi - atan(f'(x))) + v*delta/Lf*dt
//
// where f is the reference polynomial, delta the steering angle in radians
// and a the normalized acceleration.
func Propagate(s VehicleState, delta, accel float64, ref Polynomial, lf, dt float64) VehicleState {
	f := ref.Eval(s.X)
	psiDes := math.Atan(ref.Slope(s.X))

	return VehicleState{
		X:    s.X + s.V*math.Cos(s.Psi)*dt,
		Y:    s.Y + s.V*math.Sin(s.Psi)*dt,
		Psi:  s.Psi + s.V/lf*delta*dt,
		V:    s.V + accel*dt,
		Cte:  (f - s.Y) + s.V*math.Sin(s.Epsi)*dt,
		Epsi: (s.Psi - psiDes) + s.V*delta/lf*dt,
	}
}
