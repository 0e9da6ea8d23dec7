package game

type collideFunc func(w *World, self, other *Entity)

// collisionHandlers dispatches on the detecting entity's kind. Kinds without a
// handler never initiate collisions.
var collisionHandlers = [kindCount]collideFunc{
	KindGenerator: generatorCollide,
}

// DetectCollisions queries the grid around every detecting entity and hands
// each colliding candidate to the initiator's handler, once per ordered pair.
func (w *World) DetectCollisions() {
	w.Entities.Each(func(e *Entity) {
		if !e.Flags.Has(FlagDetectsCollision) {
			return
		}
		handle := collisionHandlers[e.Kind]
		if handle == nil {
			return
		}
		w.collideBuf = w.Grid.Query(e.Pos, e.Size+CollisionReach, w.collideBuf[:0])
		for _, id := range w.collideBuf {
			if id == e.ID {
				continue
			}
			other, ok := w.Entities.Get(id)
			if !ok || !other.Flags.Has(FlagCollides) {
				continue
			}
			handle(w, e, other)
		}
	})
}
