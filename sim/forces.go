package sim

// DefaultBeta is the repulsion/attraction crossover used when the
// configuration does not set one.
const DefaultBeta = 0.3

// ForceLaw evaluates the pairwise force at normalized distance r in
// [0, 1) for the given attraction coefficient. Up to beta the force is a
// type-independent repulsive core; between beta and 1 it is a signed lobe
// peaking at (1+beta)/2. Continuous at both r = beta and r = 1.
// The boundary r = beta belongs to the repulsive branch: r/beta - 1 is
// exactly zero there in float32, while the lobe expression leaves a
// rounding residue for some beta values.
func ForceLaw(r, attraction, beta float32) float32 {
	switch {
	case r <= beta:
		return r/beta - 1
	case r < 1:
		return attraction * (1 - abs32(2*r-1-beta)/(1-beta))
	default:
		return 0
	}
}

// stepParticle computes next-tick velocity and position for prev[i],
// reading only the previous snapshot and the spatial index, and writes
// curr[i]. Safe to run concurrently per particle.
func (s *System) stepParticle(i int, dt float32) {
	p := s.prev[i]
	radius := s.EffectRadius
	radiusSq := radius * radius
	attraction := s.Matrix[p.Type*s.TypeCount:]

	var totalForce Vec3

	// The 27 periodic images of the domain that can sit within one
	// interaction radius, given worldSize >= 2*radius.
	for xo := float32(-1); xo <= 1; xo++ {
		for yo := float32(-1); yo <= 1; yo++ {
			for zo := float32(-1); zo <= 1; zo++ {
				offset := Vec3{xo, yo, zo}.Scale(s.WorldSize)
				shifted := p.Pos.Add(offset)
				home := cellOf(shifted, radius)

				for dx := int32(-1); dx <= 1; dx++ {
					for dy := int32(-1); dy <= 1; dy++ {
						for dz := int32(-1); dz <= 1; dz++ {
							want := home.offset(dx, dy, dz)
							for _, j := range s.index.bucket(want) {
								// Reject hash-collision false positives.
								if s.index.cells[j] != want {
									continue
								}
								other := &s.prev[j]
								relative := other.Pos.Sub(shifted)
								sqrDistance := relative.LengthSq()
								// The > 0 bound excludes self-interaction
								// and coincident particles.
								if sqrDistance <= 0 || sqrDistance >= radiusSq {
									continue
								}
								distance := sqrt32(sqrDistance)
								f := ForceLaw(distance/radius, attraction[other.Type], s.Beta)
								totalForce = totalForce.Add(relative.Scale(f / distance))
							}
						}
					}
				}
			}
		}
	}

	p.Vel = p.Vel.Add(totalForce.Scale(s.ForceScale * radius * dt))
	p.Vel = p.Vel.Add(s.Gravity.Scale(dt))

	// Damping, with a guard so one step can never reverse the velocity.
	if damp := s.decay * dt; damp >= 1 {
		p.Vel = Vec3{}
	} else {
		p.Vel = p.Vel.Sub(p.Vel.Scale(damp))
	}

	p.Pos = p.Pos.Add(p.Vel.Scale(dt))

	if s.SolidWalls {
		p.Pos.X, p.Vel.X = reflect(p.Pos.X, p.Vel.X, s.WorldSize)
		p.Pos.Y, p.Vel.Y = reflect(p.Pos.Y, p.Vel.Y, s.WorldSize)
		p.Pos.Z, p.Vel.Z = reflect(p.Pos.Z, p.Vel.Z, s.WorldSize)
	} else {
		p.Pos.X = wrap(p.Pos.X, s.WorldSize)
		p.Pos.Y = wrap(p.Pos.Y, s.WorldSize)
		p.Pos.Z = wrap(p.Pos.Z, s.WorldSize)
	}

	s.curr[i] = p
}

// wrap applies the periodic boundary on one axis.
func wrap(pos, worldSize float32) float32 {
	half := worldSize * 0.5
	if pos > half {
		pos -= worldSize
	}
	if pos < -half {
		pos += worldSize
	}
	return pos
}

// reflect applies the solid-wall boundary on one axis: clamp the position
// and zero the velocity component pushing into the wall.
func reflect(pos, vel, worldSize float32) (float32, float32) {
	half := worldSize * 0.5
	if pos > half {
		pos = half
		if vel > 0 {
			vel = 0
		}
	}
	if pos < -half {
		pos = -half
		if vel < 0 {
			vel = 0
		}
	}
	return pos, vel
}
