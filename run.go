package main

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/broth/config"
	"github.com/pthm-cable/broth/sim"
	"github.com/pthm-cable/broth/stream"
	"github.com/pthm-cable/broth/telemetry"
)

// options collects the CLI surface after merging with config defaults.
type options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	ServeAddr      string
	MaxTicks       int
	StepsPerUpdate int
}

// app wires the simulation to its telemetry and stream outputs. One app
// instance drives one run, headless or windowed.
type app struct {
	cfg       *config.Config
	sys       *sim.System
	rng       *rand.Rand
	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	server    *stream.Server
	logStats  bool
	maxTicks  int
}

func newApp(cfg *config.Config, opts options) (*app, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	var gravity sim.Vec3
	if g := cfg.Derived.Gravity; len(g) == 3 {
		gravity = sim.Vec3{X: g[0], Y: g[1], Z: g[2]}
	}

	sys, err := sim.New(sim.Params{
		WorldSize:        cfg.Derived.WorldSize,
		TypeCount:        uint32(cfg.Particles.Types),
		ParticleCount:    cfg.Particles.Count,
		Matrix:           cfg.Derived.FlatMatrix,
		EffectRadius:     float32(cfg.Physics.EffectRadius),
		FrictionHalfTime: float32(cfg.Physics.FrictionHalfTime),
		ForceScale:       float32(cfg.Physics.ForceScale),
		Beta:             float32(cfg.Physics.Beta),
		Gravity:          gravity,
		SolidWalls:       cfg.Physics.SolidWalls,
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("building simulation: %w", err)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	sys.Timer = perf

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		sys.Stop()
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		sys.Stop()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	a := &app{
		cfg:       cfg,
		sys:       sys,
		rng:       rng,
		perf:      perf,
		collector: telemetry.NewCollector(opts.StatsWindowSec, cfg.Derived.DT32),
		output:    output,
		logStats:  opts.LogStats,
		maxTicks:  opts.MaxTicks,
	}

	if opts.ServeAddr != "" {
		a.server = stream.NewServer(opts.ServeAddr)
		a.server.Start()
	}

	return a, nil
}

// step advances the simulation one tick and runs the outer phases:
// frame broadcast, then telemetry flush when a window closes.
func (a *app) step(dt float32) {
	a.perf.StartTick()

	a.sys.Update(dt)
	tick := a.sys.Tick()

	if a.server != nil && a.server.ClientCount() > 0 {
		a.perf.StartPhase(telemetry.PhaseStream)
		frame, err := stream.EncodeFrame(tick, a.cfg.Derived.WorldSize, a.sys.Particles())
		if err != nil {
			slog.Warn("frame encode failed", "err", err)
		} else {
			a.server.Broadcast(frame)
		}
	}

	if a.collector.ShouldFlush(tick) {
		a.perf.StartPhase(telemetry.PhaseTelemetry)
		a.flushWindow(tick)
	}

	a.perf.EndTick()
}

func (a *app) flushWindow(tick int64) {
	stats := a.collector.Flush(tick, int(a.sys.TypeCount), a.sys.Particles())
	perfStats := a.perf.Stats()

	if a.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := a.output.WriteTelemetry(stats); err != nil {
		slog.Warn("telemetry write failed", "err", err)
	}
	if err := a.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Warn("perf write failed", "err", err)
	}
}

// done reports whether the configured tick limit has been reached.
func (a *app) done() bool {
	return a.maxTicks > 0 && int(a.sys.Tick()) >= a.maxTicks
}

func (a *app) close() {
	if a.server != nil {
		if err := a.server.Close(); err != nil {
			slog.Warn("stream close failed", "err", err)
		}
	}
	if err := a.output.Close(); err != nil {
		slog.Warn("output close failed", "err", err)
	}
	a.sys.Stop()
}

// runHeadless drives the tick loop as fast as the CPU allows.
func (a *app) runHeadless(dt float32, stepsPerUpdate int) {
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}
	for {
		for i := 0; i < stepsPerUpdate; i++ {
			a.step(dt)
		}
		if a.done() {
			slog.Info("max ticks reached", "tick", a.sys.Tick())
			return
		}
	}
}
