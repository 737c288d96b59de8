package main

import (
	"encoding/json"
	"fmt"
	"os"

	control "waypoint-mpc-core/closed_loop/tracking_control"
)

// Scenario defines one complete tracking run: the reference waypoints, the
// initial global pose, how many ticks to drive, and the controller tuning.
type Scenario struct {
	Meta        ScenarioMeta       `json:"meta"`
	Waypoints   []control.Point    `json:"waypoints"`
	InitialPose control.Pose       `json:"initial_pose"`
	Ticks       int                `json:"ticks"`
	MPCConfig   *control.MPCConfig `json:"mpc_config,omitempty"` // nil uses defaults
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// Config returns the scenario's controller tuning, falling back to defaults.
func (s *Scenario) Config() control.MPCConfig {
	if s.MPCConfig != nil {
		return *s.MPCConfig
	}
	return control.DefaultMPCConfig()
}

// LoadScenario loads a scenario from a JSON file and validates it.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}

	// Pre-populate the tuning with defaults so a partial mpc_config block
	// overrides only the fields it names.
	def := control.DefaultMPCConfig()
	scen := Scenario{MPCConfig: &def}
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Ticks <= 0 {
		return Scenario{}, fmt.Errorf("invalid ticks: %d", scen.Ticks)
	}

	cfg := scen.Config()
	if err := cfg.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("mpc_config: %w", err)
	}
	if len(scen.Waypoints) < cfg.FitOrder+1 {
		return Scenario{}, fmt.Errorf("need at least %d waypoints for a degree-%d fit, got %d",
			cfg.FitOrder+1, cfg.FitOrder, len(scen.Waypoints))
	}

	return scen, nil
}
