package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	control "waypoint-mpc-core/closed_loop/tracking_control"
	"waypoint-mpc-core/utils"
)

func testLogger(t *testing.T) *utils.Logger {
	t.Helper()
	log, err := utils.NewFileLogger(filepath.Join(t.TempDir(), "test.log"), utils.WARN, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestRunnerClosedLoop(t *testing.T) {
	scen, err := LoadScenario("mpc_to_line.json")
	require.NoError(t, err)
	scen.Ticks = 10

	mpc, err := control.NewMPCController(scen.Config(), nil)
	require.NoError(t, err)

	outDir := t.TempDir()
	r := &Runner{
		cfg:  RunnerConfig{OutputDir: outDir},
		log:  testLogger(t),
		scen: scen,
		mpc:  mpc,
		hist: &History{},
	}

	require.NoError(t, r.Run(context.Background()))

	hist := r.History()
	require.Equal(t, scen.Ticks, hist.Len())

	cfg := scen.Config()
	for i := 0; i < hist.Len(); i++ {
		assert.LessOrEqual(t, math.Abs(hist.Delta[i]), cfg.SteerBoundRad+1e-6, "tick %d", i)
		assert.LessOrEqual(t, math.Abs(hist.Accel[i]), cfg.AccelBound+1e-6, "tick %d", i)
	}

	// The vehicle starts near the line; the loop must keep it there.
	assert.Less(t, math.Abs(hist.Cte[hist.Len()-1]), 1.0)

	_, err = os.Stat(filepath.Join(outDir, "history.csv"))
	assert.NoError(t, err)
}
