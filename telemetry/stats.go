package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/broth/sim"
)

// WindowStats holds aggregated statistics for a time window, sampled from
// the particle snapshot at window end.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Particles int `csv:"particles"`

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Total kinetic energy (unit mass per particle)
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Per-type population; constant for a run but recorded for
	// cross-run comparability.
	TypeCounts []int `csv:"-"`
}

// LogStats logs the window via slog.
func (w WindowStats) LogStats() {
	slog.Info("window",
		"tick", w.WindowEndTick,
		"sim_time", w.SimTimeSec,
		"particles", w.Particles,
		"speed_mean", w.SpeedMean,
		"speed_p50", w.SpeedP50,
		"speed_p90", w.SpeedP90,
		"speed_max", w.SpeedMax,
		"kinetic_energy", w.KineticEnergy,
	)
}

// ComputeSpeedStats calculates mean, std, percentiles, and max from speed
// values.
func ComputeSpeedStats(speeds []float64) (mean, std, p10, p50, p90, max float64) {
	if len(speeds) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sorted := make([]float64, len(speeds))
	copy(sorted, speeds)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		std = stat.StdDev(sorted, nil)
	}
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	max = sorted[len(sorted)-1]

	return mean, std, p10, p50, p90, max
}

// Collector accumulates ticks into fixed windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float32

	windowStartTick int64

	// Scratch reused across flushes
	speeds []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int64(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush samples the snapshot, closes the current window, and starts the
// next one.
func (c *Collector) Flush(currentTick int64, typeCount int, snapshot []sim.Particle) WindowStats {
	c.speeds = c.speeds[:0]
	typeCounts := make([]int, typeCount)
	var kinetic float64

	for i := range snapshot {
		v2 := float64(snapshot[i].Vel.LengthSq())
		kinetic += 0.5 * v2
		c.speeds = append(c.speeds, float64(snapshot[i].Vel.Length()))
		if t := int(snapshot[i].Type); t < typeCount {
			typeCounts[t]++
		}
	}

	mean, std, p10, p50, p90, max := ComputeSpeedStats(c.speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),
		Particles:       len(snapshot),
		SpeedMean:       mean,
		SpeedStd:        std,
		SpeedP10:        p10,
		SpeedP50:        p50,
		SpeedP90:        p90,
		SpeedMax:        max,
		KineticEnergy:   kinetic,
		TypeCounts:      typeCounts,
	}

	c.windowStartTick = currentTick
	return stats
}
