package sim

import "math/rand"

// Particle is a value type with no identity beyond its array slot.
// The population is fixed for the run; particles are never individually
// created or destroyed after seeding.
type Particle struct {
	Pos  Vec3
	Vel  Vec3
	Type uint32
}

// newPopulation seeds n particles uniformly in the domain cube
// [-worldSize/2, worldSize/2]^3 with zero velocity and uniform random type.
func newPopulation(n int, typeCount uint32, worldSize float32, rng *rand.Rand) []Particle {
	particles := make([]Particle, n)
	for i := range particles {
		particles[i] = Particle{
			Pos: Vec3{
				X: (rng.Float32() - 0.5) * worldSize,
				Y: (rng.Float32() - 0.5) * worldSize,
				Z: (rng.Float32() - 0.5) * worldSize,
			},
			Type: uint32(rng.Intn(int(typeCount))),
		}
	}
	return particles
}
