package control

// Default tuning for the line-following calibration this controller was
// developed against. Every value can be overridden per scenario.
const (
	DefaultHorizonSteps      = 25
	DefaultTimeStepS         = 0.05
	DefaultTargetVelocityMPS = 40.0
	DefaultSteerBoundRad     = 0.436332 // 25 degrees
	DefaultAccelBound        = 1.0
	DefaultSolverBudgetS     = 0.5
	DefaultFitOrder          = 3

	// Front-axle-to-CoG distance. Obtained by driving constant-steer circles
	// and matching the model's turning radius against the measured one; a
	// calibration constant, not a derived quantity.
	DefaultWheelbaseLfM = 2.67
)

// MPCConfig holds trajectory MPC parameters
type MPCConfig struct {
	HorizonSteps      int     `json:"horizon_steps"`
	TimeStepS         float64 `json:"time_step_s"`
	TargetVelocityMPS float64 `json:"target_velocity_mps"`

	SteerBoundRad float64 `json:"steer_bound_rad"`
	AccelBound    float64 `json:"accel_bound"`
	WheelbaseLfM  float64 `json:"wheelbase_lf_m"`

	SolverBudgetS float64 `json:"solver_budget_s"`
	FitOrder      int     `json:"fit_order"`

	WeightCte       float64 `json:"weight_cte"`
	WeightEpsi      float64 `json:"weight_epsi"`
	WeightVelocity  float64 `json:"weight_velocity"`
	WeightSteer     float64 `json:"weight_steer"`
	WeightAccel     float64 `json:"weight_accel"`
	WeightSteerRate float64 `json:"weight_steer_rate"`
	WeightAccelRate float64 `json:"weight_accel_rate"`
}

// DefaultMPCConfig returns the baseline tuning with all cost weights at 1.
func DefaultMPCConfig() MPCConfig {
	return MPCConfig{
		HorizonSteps:      DefaultHorizonSteps,
		TimeStepS:         DefaultTimeStepS,
		TargetVelocityMPS: DefaultTargetVelocityMPS,
		SteerBoundRad:     DefaultSteerBoundRad,
		AccelBound:        DefaultAccelBound,
		WheelbaseLfM:      DefaultWheelbaseLfM,
		SolverBudgetS:     DefaultSolverBudgetS,
		FitOrder:          DefaultFitOrder,
		WeightCte:         1.0,
		WeightEpsi:        1.0,
		WeightVelocity:    1.0,
		WeightSteer:       1.0,
		WeightAccel:       1.0,
		WeightSteerRate:   1.0,
		WeightAccelRate:   1.0,
	}
}

// Validate checks the configuration for values the formulation cannot work
// with. A horizon below 2 leaves no transition to constrain.
func (cfg MPCConfig) Validate() error {
	if cfg.HorizonSteps < 2 {
		return &ConfigError{Field: "horizon_steps", Reason: "must be at least 2"}
	}
	if cfg.TimeStepS <= 0 {
		return &ConfigError{Field: "time_step_s", Reason: "must be positive"}
	}
	if cfg.SteerBoundRad <= 0 {
		return &ConfigError{Field: "steer_bound_rad", Reason: "must be positive"}
	}
	if cfg.AccelBound <= 0 {
		return &ConfigError{Field: "accel_bound", Reason: "must be positive"}
	}
	if cfg.WheelbaseLfM <= 0 {
		return &ConfigError{Field: "wheelbase_lf_m", Reason: "must be positive"}
	}
	if cfg.SolverBudgetS <= 0 {
		return &ConfigError{Field: "solver_budget_s", Reason: "must be positive"}
	}
	if cfg.FitOrder < 1 {
		return &ConfigError{Field: "fit_order", Reason: "must be at least 1"}
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"weight_cte", cfg.WeightCte},
		{"weight_epsi", cfg.WeightEpsi},
		{"weight_velocity", cfg.WeightVelocity},
		{"weight_steer", cfg.WeightSteer},
		{"weight_accel", cfg.WeightAccel},
		{"weight_steer_rate", cfg.WeightSteerRate},
		{"weight_accel_rate", cfg.WeightAccelRate},
	} {
		if w.value < 0 {
			return &ConfigError{Field: w.name, Reason: "must not be negative"}
		}
	}
	return nil
}
