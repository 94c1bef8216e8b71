package sim

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"
)

func testParams() Params {
	return Params{
		WorldSize:        10,
		TypeCount:        2,
		ParticleCount:    20,
		EffectRadius:     2,
		FrictionHalfTime: 25,
		ForceScale:       1,
	}
}

func newTestSystem(t *testing.T, p Params, seed int64) *System {
	t.Helper()
	s, err := New(p, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestNewRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"world too small", func(p *Params) { p.WorldSize = 3.9 }},
		{"zero radius", func(p *Params) { p.EffectRadius = 0 }},
		{"zero types", func(p *Params) { p.TypeCount = 0 }},
		{"bad matrix shape", func(p *Params) { p.Matrix = []float32{1, 2, 3} }},
		{"beta out of range", func(p *Params) { p.Beta = 1 }},
		{"zero half time", func(p *Params) { p.FrictionHalfTime = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			if _, err := New(p, rand.New(rand.NewSource(1))); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestUpdateConservesPopulation(t *testing.T) {
	s := newTestSystem(t, testParams(), 3)
	for i := 0; i < 50; i++ {
		s.Update(1.0 / 60)
		if got := len(s.Particles()); got != 20 {
			t.Fatalf("tick %d: population = %d, want 20", i, got)
		}
	}
	for i, p := range s.Particles() {
		if p.Type >= 2 {
			t.Errorf("particle %d has type %d, want < 2", i, p.Type)
		}
	}
}

func TestUpdateZeroParticlesIsNoOp(t *testing.T) {
	p := testParams()
	p.ParticleCount = 0
	s := newTestSystem(t, p, 3)
	s.Update(1.0 / 60)
	if len(s.Particles()) != 0 {
		t.Error("expected empty population")
	}
}

func TestUpdatePanicsOnInvariantViolation(t *testing.T) {
	s := newTestSystem(t, testParams(), 3)
	s.WorldSize = s.EffectRadius // breaks worldSize >= 2*radius

	defer func() {
		if recover() == nil {
			t.Error("expected Update to panic on broken invariant")
		}
	}()
	s.Update(1.0 / 60)
}

func TestUpdatePanicsOnMatrixShape(t *testing.T) {
	s := newTestSystem(t, testParams(), 3)
	s.Matrix = s.Matrix[:3]

	defer func() {
		if recover() == nil {
			t.Error("expected Update to panic on matrix shape mismatch")
		}
	}()
	s.Update(1.0 / 60)
}

// bruteForceStep advances one particle of snapshot with the same force
// and integration rules, but an O(N²) pairwise scan instead of the grid.
func bruteForceStep(s *System, snapshot []Particle, i int, dt float32) Particle {
	p := snapshot[i]
	radius := s.EffectRadius
	radiusSq := radius * radius
	var total Vec3

	for xo := float32(-1); xo <= 1; xo++ {
		for yo := float32(-1); yo <= 1; yo++ {
			for zo := float32(-1); zo <= 1; zo++ {
				offset := Vec3{xo, yo, zo}.Scale(s.WorldSize)
				shifted := p.Pos.Add(offset)
				for j := range snapshot {
					relative := snapshot[j].Pos.Sub(shifted)
					sqrDistance := relative.LengthSq()
					if sqrDistance <= 0 || sqrDistance >= radiusSq {
						continue
					}
					distance := sqrt32(sqrDistance)
					a := s.Matrix[p.Type*s.TypeCount+snapshot[j].Type]
					f := ForceLaw(distance/radius, a, s.Beta)
					total = total.Add(relative.Scale(f / distance))
				}
			}
		}
	}

	p.Vel = p.Vel.Add(total.Scale(s.ForceScale * radius * dt))
	p.Vel = p.Vel.Add(s.Gravity.Scale(dt))
	damp := pow32(0.5, 1/s.FrictionHalfTime) * dt
	p.Vel = p.Vel.Sub(p.Vel.Scale(damp))
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
	p.Pos.X = wrap(p.Pos.X, s.WorldSize)
	p.Pos.Y = wrap(p.Pos.Y, s.WorldSize)
	p.Pos.Z = wrap(p.Pos.Z, s.WorldSize)
	return p
}

func closeEnough(got, want float32) bool {
	diff := math.Abs(float64(got - want))
	return diff <= 1e-5 || diff <= 1e-4*math.Abs(float64(want))
}

func checkAgainstBruteForce(t *testing.T, s *System, dt float32) {
	t.Helper()

	snapshot := make([]Particle, len(s.Particles()))
	copy(snapshot, s.Particles())

	s.Update(dt)

	for i := range snapshot {
		want := bruteForceStep(s, snapshot, i, dt)
		got := s.Particles()[i]
		if !closeEnough(got.Vel.X, want.Vel.X) ||
			!closeEnough(got.Vel.Y, want.Vel.Y) ||
			!closeEnough(got.Vel.Z, want.Vel.Z) {
			t.Errorf("particle %d velocity = %+v, brute force wants %+v", i, got.Vel, want.Vel)
		}
		if !closeEnough(got.Pos.X, want.Pos.X) ||
			!closeEnough(got.Pos.Y, want.Pos.Y) ||
			!closeEnough(got.Pos.Z, want.Pos.Z) {
			t.Errorf("particle %d position = %+v, brute force wants %+v", i, got.Pos, want.Pos)
		}
	}
}

func TestGridMatchesBruteForceSmall(t *testing.T) {
	p := testParams()
	p.Matrix = []float32{0.5, -1, 1, 0.25}
	s := newTestSystem(t, p, 7)
	checkAgainstBruteForce(t, s, 1.0/60)
}

func TestGridMatchesBruteForceLarge(t *testing.T) {
	// Large enough to cross the parallel threshold and force hash
	// collisions (table length equals particle count).
	p := testParams()
	p.ParticleCount = 300
	p.TypeCount = 3
	s := newTestSystem(t, p, 11)
	for tick := 0; tick < 3; tick++ {
		checkAgainstBruteForce(t, s, 1.0/60)
	}
}

func TestAsymmetricMatrixChase(t *testing.T) {
	p := testParams()
	p.ParticleCount = 0
	// Type 0 is strongly attracted to type 1; type 1 only weakly to type 0.
	p.Matrix = []float32{0, 1, 0.5, 0}
	p.FrictionHalfTime = 0.04 // negligible damping
	s := newTestSystem(t, p, 1)

	s.curr = []Particle{
		{Pos: Vec3{X: -0.5}, Type: 0},
		{Pos: Vec3{X: 0.5}, Type: 1},
	}
	s.prev = make([]Particle, 2)
	s.Update(1.0 / 60)

	a, b := s.Particles()[0], s.Particles()[1]
	if a.Vel.X <= 0 {
		t.Errorf("chaser velocity = %v, want positive (toward target)", a.Vel.X)
	}
	if b.Vel.X >= 0 {
		t.Errorf("target velocity = %v, want negative (toward chaser)", b.Vel.X)
	}
	if abs32(a.Vel.X) <= abs32(b.Vel.X) {
		t.Errorf("asymmetric matrix should give unequal pulls: |%v| vs |%v|", a.Vel.X, b.Vel.X)
	}
}

func TestPeriodicWrapAfterCrossing(t *testing.T) {
	p := testParams()
	p.ParticleCount = 0
	p.FrictionHalfTime = 0.04
	s := newTestSystem(t, p, 1)

	s.curr = []Particle{{Pos: Vec3{X: 4.95}, Vel: Vec3{X: 10}}}
	s.prev = make([]Particle, 1)
	s.Update(0.1)

	x := s.Particles()[0].Pos.X
	if x > 0 {
		t.Errorf("particle should have wrapped to the -x side, got x = %v", x)
	}
	if x < -s.WorldSize/2 || x > s.WorldSize/2 {
		t.Errorf("particle escaped the domain: x = %v", x)
	}
}

func TestSolidWallsClampAndStop(t *testing.T) {
	p := testParams()
	p.ParticleCount = 0
	p.SolidWalls = true
	p.FrictionHalfTime = 0.04
	s := newTestSystem(t, p, 1)

	s.curr = []Particle{{Pos: Vec3{X: 4.95}, Vel: Vec3{X: 10}}}
	s.prev = make([]Particle, 1)
	s.Update(0.1)

	got := s.Particles()[0]
	if got.Pos.X != 5 {
		t.Errorf("position = %v, want clamped to 5", got.Pos.X)
	}
	if got.Vel.X != 0 {
		t.Errorf("velocity = %v, want zeroed at the wall", got.Vel.X)
	}
}

func TestIsolatedParticleOnlyDecays(t *testing.T) {
	p := testParams()
	p.ParticleCount = 0
	p.FrictionHalfTime = 2
	s := newTestSystem(t, p, 1)

	s.curr = []Particle{{Vel: Vec3{X: 1, Y: -0.5, Z: 0.25}}}
	s.prev = make([]Particle, 1)

	prevSpeed := s.Particles()[0].Vel.Length()
	for i := 0; i < 100; i++ {
		s.Update(1.0 / 60)
		speed := s.Particles()[0].Vel.Length()
		if speed > prevSpeed {
			t.Fatalf("tick %d: speed grew from %v to %v with no force acting", i, prevSpeed, speed)
		}
		prevSpeed = speed
	}
	if prevSpeed >= 1 {
		t.Errorf("speed after 100 damped ticks = %v, want decayed", prevSpeed)
	}
}

func TestGravityAccelerates(t *testing.T) {
	p := testParams()
	p.ParticleCount = 0
	p.Gravity = Vec3{Y: -1}
	p.FrictionHalfTime = 0.04
	s := newTestSystem(t, p, 1)

	s.curr = []Particle{{}}
	s.prev = make([]Particle, 1)
	s.Update(1.0 / 60)

	if vy := s.Particles()[0].Vel.Y; vy >= 0 {
		t.Errorf("velocity.Y = %v, want negative under gravity", vy)
	}
}

func TestMatrixSaveLoadRoundTrip(t *testing.T) {
	s := newTestSystem(t, testParams(), 5)
	path := filepath.Join(t.TempDir(), "matrix.json")

	if err := s.SaveMatrix(path); err != nil {
		t.Fatalf("SaveMatrix: %v", err)
	}

	want := make([]float32, len(s.Matrix))
	copy(want, s.Matrix)
	s.RandomizeMatrix(rand.New(rand.NewSource(99)))

	if err := s.LoadMatrix(path); err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	for i := range want {
		if s.Matrix[i] != want[i] {
			t.Fatalf("matrix[%d] = %v after round trip, want %v", i, s.Matrix[i], want[i])
		}
	}
}

func TestSetMatrixRejectsBadShape(t *testing.T) {
	s := newTestSystem(t, testParams(), 5)
	if err := s.SetMatrix([]float32{1, 2, 3}); err == nil {
		t.Error("expected shape error, got nil")
	}
}
