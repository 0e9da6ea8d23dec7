package game

// Step runs the simulation half of a tick: integrate, relax ropes, re-index,
// collide. Client sync, input application and Advance are left to the caller,
// which owns the rest of the tick order.
func Step(w *World) {
	w.Integrate()
	w.SolveRopes()
	w.Reindex()
	w.DetectCollisions()
}

// Integrate runs per-kind behaviour and moves every entity by its
// accumulated forces.
func (w *World) Integrate() {
	w.Entities.Each(func(e *Entity) {
		if e.Kind == KindGenerator {
			w.tickGenerator(e)
		}
		e.integrate(w.Params.Friction, w.Params.WorldSize)
	})
}

func (w *World) SolveRopes() {
	w.Entities.Each(func(e *Entity) {
		if e.Kind == KindRope {
			w.solveRope(e)
		}
	})
}

// Reindex brings the grid up to date with this tick's positions. It must
// run before any query of the tick.
func (w *World) Reindex() {
	w.Entities.Each(func(e *Entity) {
		if e.Flags.Has(FlagStatic) && e.Kind != KindRope {
			return
		}
		if err := w.Grid.Update(e); err != nil {
			w.Invariant("reindex %s %d: %v", e.Kind, e.ID, err)
		}
	})
}
