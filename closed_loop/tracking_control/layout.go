package control

// VarLayout maps the named horizon quantities onto the flat decision vector
// handed to the solver: six state blocks of N entries each, then the two
// actuator blocks of N-1. The blocks are contiguous and non-overlapping, and
// every component that touches the vector goes through these accessors; no
// offset arithmetic lives anywhere else.
//
// The constraint vector shares the state-block offsets: residual slot X(0) is
// the x anchor, slot X(t) for t >= 1 the x transition into step t, and so on
// for the other five quantities.
type VarLayout struct {
	N int

	XStart    int
	YStart    int
	PsiStart  int
	VStart    int
	CteStart  int
	EpsiStart int

	DeltaStart int
	AStart     int
}

// NewVarLayout computes the block offsets for a horizon of n steps.
func NewVarLayout(n int) VarLayout {
	l := VarLayout{N: n}
	l.XStart = 0
	l.YStart = l.XStart + n
	l.PsiStart = l.YStart + n
	l.VStart = l.PsiStart + n
	l.CteStart = l.VStart + n
	l.EpsiStart = l.CteStart + n
	l.DeltaStart = l.EpsiStart + n
	l.AStart = l.DeltaStart + n - 1
	return l
}

// NumVars is the decision vector length: 6N states plus 2(N-1) actuators.
func (l VarLayout) NumVars() int { return 6*l.N + 2*(l.N-1) }

// NumConstraints is the residual vector length: six equations per step,
// anchors at step 0 and transitions for the remaining N-1 steps.
func (l VarLayout) NumConstraints() int { return 6 * l.N }

// X returns the decision-vector index of x at horizon step i.
func (l VarLayout) X(i int) int { return l.XStart + i }

// Y returns the decision-vector index of y at horizon step i.
func (l VarLayout) Y(i int) int { return l.YStart + i }

// Psi returns the decision-vector index of the heading at horizon step i.
func (l VarLayout) Psi(i int) int { return l.PsiStart + i }

// V returns the decision-vector index of the speed at horizon step i.
func (l VarLayout) V(i int) int { return l.VStart + i }

// Cte returns the decision-vector index of the cross-track error at step i.
func (l VarLayout) Cte(i int) int { return l.CteStart + i }

// Epsi returns the decision-vector index of the heading error at step i.
func (l VarLayout) Epsi(i int) int { return l.EpsiStart + i }

// Delta returns the decision-vector index of the steering command at step i,
// valid for i in [0, N-2].
func (l VarLayout) Delta(i int) int { return l.DeltaStart + i }

// Accel returns the decision-vector index of the acceleration command at
// step i, valid for i in [0, N-2].
func (l VarLayout) Accel(i int) int { return l.AStart + i }
