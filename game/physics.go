package game

// ApplyForce accumulates a force for the next integration. Knockback
// affected forces are scaled by the entity's knockback factor.
func (e *Entity) ApplyForce(angle, magnitude float64, knockback bool) {
	e.ApplyForceVec(Polar(angle, magnitude), knockback)
}

func (e *Entity) ApplyForceVec(f Vec, knockback bool) {
	if knockback {
		f = f.Scale(e.Knockback)
	}
	e.Force = e.Force.Add(f)
}

// ApplyAcceleration changes velocity immediately, bypassing resistance and
// knockback. Used for impulses such as launching food.
func (e *Entity) ApplyAcceleration(angle, magnitude float64) {
	e.Vel = e.Vel.Add(Polar(angle, magnitude))
}

// integrate advances one tick: forces scaled by resistance into velocity,
// velocity into position, then friction decay.
func (e *Entity) integrate(friction, worldSize float64) {
	if e.Flags.Has(FlagStatic) {
		e.Force = Vec{}
		e.Vel = Vec{}
		return
	}
	e.Vel = e.Vel.Add(e.Force.Scale(1 - e.Resistance))
	e.Pos = e.Pos.Add(e.Vel)
	e.Vel = e.Vel.Scale(friction)
	e.Force = Vec{}

	if worldSize > 0 {
		e.Pos.X = clamp(e.Pos.X, 0, worldSize)
		e.Pos.Y = clamp(e.Pos.Y, 0, worldSize)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
