package sim

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

// Phase names reported to the tick timer.
const (
	PhaseSpatialIndex = "spatial_index"
	PhaseForces       = "forces_integrate"
)

// PhaseTimer receives per-phase timing marks from Update.
// Satisfied by telemetry.PerfCollector.
type PhaseTimer interface {
	StartPhase(name string)
}

// Params configures a System. See config.Load for the YAML surface.
type Params struct {
	WorldSize        float32
	TypeCount        uint32
	ParticleCount    int
	Matrix           []float32 // flat TypeCount² row-major; empty = random
	EffectRadius     float32
	FrictionHalfTime float32
	ForceScale       float32
	Beta             float32 // 0 = DefaultBeta
	Gravity          Vec3
	SolidWalls       bool
}

func (p Params) validate() error {
	if p.EffectRadius <= 0 {
		return fmt.Errorf("effect radius must be positive, got %v", p.EffectRadius)
	}
	if p.WorldSize < 2*p.EffectRadius {
		return fmt.Errorf("world size %v < 2 * effect radius %v: neighbor search assumes at most one periodic image per axis", p.WorldSize, p.EffectRadius)
	}
	if p.TypeCount == 0 {
		return fmt.Errorf("type count must be at least 1")
	}
	if p.ParticleCount < 0 {
		return fmt.Errorf("particle count must be non-negative, got %d", p.ParticleCount)
	}
	if n := int(p.TypeCount) * int(p.TypeCount); len(p.Matrix) != 0 && len(p.Matrix) != n {
		return fmt.Errorf("attraction matrix has %d entries, want %d (type count %d squared)", len(p.Matrix), n, p.TypeCount)
	}
	if p.Beta < 0 || p.Beta >= 1 {
		return fmt.Errorf("beta must be in [0, 1), got %v", p.Beta)
	}
	if p.FrictionHalfTime <= 0 {
		return fmt.Errorf("friction half time must be positive, got %v", p.FrictionHalfTime)
	}
	return nil
}

// System owns the double-buffered particle population and advances it one
// tick at a time. Parameter fields may be mutated by the owning
// application between ticks, never during one.
type System struct {
	WorldSize        float32
	TypeCount        uint32
	Matrix           []float32
	EffectRadius     float32
	FrictionHalfTime float32
	ForceScale       float32
	Beta             float32
	Gravity          Vec3
	SolidWalls       bool

	// Timer, when set, receives phase marks from Update.
	Timer PhaseTimer

	curr  []Particle
	prev  []Particle
	index spatialIndex
	pool  *workerPool
	decay float32
	tick  int64
}

// New validates params, seeds the population, and builds the worker pool.
func New(p Params, rng *rand.Rand) (*System, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	beta := p.Beta
	if beta == 0 {
		beta = DefaultBeta
	}

	s := &System{
		WorldSize:        p.WorldSize,
		TypeCount:        p.TypeCount,
		Matrix:           p.Matrix,
		EffectRadius:     p.EffectRadius,
		FrictionHalfTime: p.FrictionHalfTime,
		ForceScale:       p.ForceScale,
		Beta:             beta,
		Gravity:          p.Gravity,
		SolidWalls:       p.SolidWalls,
		pool:             newWorkerPool(),
	}

	if len(s.Matrix) == 0 {
		s.RandomizeMatrix(rng)
	}

	s.curr = newPopulation(p.ParticleCount, p.TypeCount, p.WorldSize, rng)
	s.prev = make([]Particle, p.ParticleCount)
	return s, nil
}

// Update advances the simulation by dt seconds: counting-sort spatial
// index over the current snapshot, buffer swap, then a data-parallel
// force and integration pass writing the new snapshot. Contract
// violations panic; they are caller bugs that would otherwise corrupt the
// neighbor search silently.
func (s *System) Update(dt float32) {
	n := len(s.curr)
	if n == 0 {
		return
	}
	s.mustBeValid()

	s.startPhase(PhaseSpatialIndex)
	s.index.build(s.curr, s.EffectRadius, s.pool)

	// Freeze the old state as prev; the pass reads prev and writes curr,
	// so no worker ever observes a half-written particle.
	s.curr, s.prev = s.prev, s.curr

	s.startPhase(PhaseForces)
	s.decay = pow32(0.5, 1/s.FrictionHalfTime)
	s.pool.forEach(n, func(start, end int) {
		for i := start; i < end; i++ {
			s.stepParticle(i, dt)
		}
	})

	s.tick++
}

// mustBeValid checks the per-tick preconditions the neighbor search and
// force lookup rely on.
func (s *System) mustBeValid() {
	if s.EffectRadius <= 0 || s.WorldSize < 2*s.EffectRadius {
		panic(fmt.Sprintf("sim: world size %v < 2 * effect radius %v", s.WorldSize, s.EffectRadius))
	}
	if want := int(s.TypeCount) * int(s.TypeCount); len(s.Matrix) != want {
		panic(fmt.Sprintf("sim: attraction matrix has %d entries, want %d", len(s.Matrix), want))
	}
}

func (s *System) startPhase(name string) {
	if s.Timer != nil {
		s.Timer.StartPhase(name)
	}
}

// Particles returns the current snapshot. Read-only for callers: the
// renderer and stream layers must not mutate it, and must not hold it
// across a concurrent Update.
func (s *System) Particles() []Particle {
	return s.curr
}

// Tick returns the number of completed updates.
func (s *System) Tick() int64 {
	return s.tick
}

// Stop shuts down the worker pool. The System must not be updated again.
func (s *System) Stop() {
	s.pool.stop()
}

// RandomizeMatrix replaces the attraction matrix with uniform random
// coefficients in [-1, 1].
func (s *System) RandomizeMatrix(rng *rand.Rand) {
	m := make([]float32, int(s.TypeCount)*int(s.TypeCount))
	for i := range m {
		m[i] = rng.Float32()*2 - 1
	}
	s.Matrix = m
}

// SetMatrix replaces the attraction matrix, validating its shape.
func (s *System) SetMatrix(m []float32) error {
	if want := int(s.TypeCount) * int(s.TypeCount); len(m) != want {
		return fmt.Errorf("attraction matrix has %d entries, want %d", len(m), want)
	}
	s.Matrix = m
	return nil
}

// SaveMatrix writes the attraction matrix to a JSON file as nested rows.
func (s *System) SaveMatrix(path string) error {
	n := int(s.TypeCount)
	rows := make([][]float32, n)
	for i := range rows {
		rows[i] = s.Matrix[i*n : (i+1)*n]
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling matrix: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing matrix file: %w", err)
	}
	return nil
}

// LoadMatrix reads a JSON matrix written by SaveMatrix.
func (s *System) LoadMatrix(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading matrix file: %w", err)
	}
	var rows [][]float32
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parsing matrix file: %w", err)
	}

	n := int(s.TypeCount)
	if len(rows) != n {
		return fmt.Errorf("matrix file has %d rows, want %d", len(rows), n)
	}
	m := make([]float32, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return fmt.Errorf("matrix row %d has %d entries, want %d", i, len(row), n)
		}
		m = append(m, row...)
	}
	s.Matrix = m
	return nil
}
