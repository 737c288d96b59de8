package control

import "fmt"

// FitError reports waypoint samples the reference fit cannot work with.
type FitError struct {
	Samples int
	Order   int
	Reason  string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("reference fit (samples=%d order=%d): %s", e.Samples, e.Order, e.Reason)
}

// ConfigError reports an invalid tuning parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// SolveError reports a failed horizon solve. No command may be applied when
// one is returned; the underlying solver error, if any, is wrapped.
type SolveError struct {
	Reason string
	Err    error
}

func (e *SolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("horizon solve: %s: %v", e.Reason, e.Err)
	}
	return "horizon solve: " + e.Reason
}

func (e *SolveError) Unwrap() error { return e.Err }
