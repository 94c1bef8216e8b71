package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartTick()
	p.StartPhase(PhaseSpatialIndex)
	time.Sleep(2 * time.Millisecond)
	p.StartPhase(PhaseForces)
	time.Sleep(2 * time.Millisecond)
	p.EndTick()

	stats := p.Stats()

	if stats.AvgTickDuration < 3*time.Millisecond {
		t.Errorf("avg tick = %v, want >= 3ms", stats.AvgTickDuration)
	}
	if stats.PhaseAvg[PhaseSpatialIndex] < time.Millisecond {
		t.Errorf("spatial index phase = %v, want >= 1ms", stats.PhaseAvg[PhaseSpatialIndex])
	}
	if stats.PhaseAvg[PhaseForces] < time.Millisecond {
		t.Errorf("forces phase = %v, want >= 1ms", stats.PhaseAvg[PhaseForces])
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("ticks per second should be positive")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	p := NewPerfCollector(3)

	// Record more ticks than the window holds
	for i := 0; i < 5; i++ {
		p.StartTick()
		time.Sleep(time.Millisecond)
		p.EndTick()
	}

	if p.sampleCount != 3 {
		t.Errorf("sampleCount = %d, want 3 (window size)", p.sampleCount)
	}

	stats := p.Stats()
	if stats.AvgTickDuration < time.Millisecond {
		t.Errorf("avg tick = %v, want >= 1ms", stats.AvgTickDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartTick()
	p.StartPhase(PhaseForces)
	time.Sleep(5 * time.Millisecond)
	p.EndTick()

	stats := p.Stats()

	pct := stats.PhasePct[PhaseForces]
	if pct < 50 {
		t.Errorf("forces pct = %v, want >= 50 (phase dominated the tick)", pct)
	}
	if pct > 100.1 {
		t.Errorf("forces pct = %v, want <= 100", pct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	p := NewPerfCollector(10)

	stats := p.Stats()
	if stats.AvgTickDuration != 0 {
		t.Errorf("avg tick = %v, want 0 before any samples", stats.AvgTickDuration)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("phase maps should be non-nil even with no samples")
	}
}

func TestPerfCollector_RecordFrame(t *testing.T) {
	p := NewPerfCollector(10)

	p.RecordFrame()
	time.Sleep(2 * time.Millisecond)
	p.RecordFrame()

	stats := p.Stats()
	if stats.FrameDuration < time.Millisecond {
		t.Errorf("frame duration = %v, want >= 1ms", stats.FrameDuration)
	}
	if stats.FPS <= 0 {
		t.Error("fps should be positive after two frames")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		TicksPerSecond:  666.0,
		PhasePct: map[string]float64{
			PhaseSpatialIndex: 20,
			PhaseForces:       70,
		},
	}

	row := stats.ToCSV(42)
	if row.WindowEnd != 42 {
		t.Errorf("window end = %d, want 42", row.WindowEnd)
	}
	if row.AvgTickUS != 1500 {
		t.Errorf("avg tick us = %d, want 1500", row.AvgTickUS)
	}
	if row.SpatialIndexPct != 20 || row.ForcesPct != 70 {
		t.Errorf("phase pcts = %v/%v, want 20/70", row.SpatialIndexPct, row.ForcesPct)
	}
	if row.StreamPct != 0 {
		t.Errorf("stream pct = %v, want 0 for absent phase", row.StreamPct)
	}
}
