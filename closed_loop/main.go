package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"waypoint-mpc-core/utils"
)

func main() {
	var (
		scenPath  = flag.String("scenario", "closed_loop/mpc_to_line.json", "Scenario JSON file")
		iface     = flag.String("iface", "", "SocketCAN interface for the actuation sink (empty disables TX)")
		mapPath   = flag.String("map", "config/can/can_map.csv", "Path to can_map.csv")
		frameName = flag.String("frame", "MPC_ACT_CMD", "Frame name to transmit")
		outDir    = flag.String("out", "out", "Directory for history CSV and plots (empty disables)")
		plots     = flag.Bool("plots", true, "Write diagnostic plots after the run")
		logLevel  = flag.String("log", "info", "trace|debug|info|warn|error|critical")
	)
	flag.Parse()

	log, err := utils.NewFileLogger("closed_loop.log", utils.ParseLevel(*logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open closed_loop.log: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	cfg := RunnerConfig{
		ScenarioPath: *scenPath,
		Interface:    *iface,
		MapPath:      *mapPath,
		FrameName:    *frameName,
		OutputDir:    *outDir,
		WritePlots:   *plots,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}
