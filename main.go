package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/broth/config"
	"github.com/pthm-cable/broth/viewer"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks in headless mode (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	serve := flag.String("serve", "", "Websocket snapshot feed address, e.g. :8080 (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Use config values where the CLI did not override
	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}
	serveAddr := cfg.Stream.Addr
	if *serve != "" {
		serveAddr = *serve
	}

	a, err := newApp(cfg, options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: statsWindowSec,
		OutputDir:      *outputDir,
		ServeAddr:      serveAddr,
		MaxTicks:       *maxTicks,
		StepsPerUpdate: *stepsPerUpdate,
	})
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"particles", cfg.Particles.Count,
			"stats_window", statsWindowSec,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
		)
		a.runHeadless(cfg.Derived.DT32, *stepsPerUpdate)
		return
	}

	slog.Info("starting viewer",
		"seed", rngSeed,
		"particles", cfg.Particles.Count,
	)
	v := viewer.New(cfg, a.sys, a.perf, a.rng)
	v.Run(a.step)
}
