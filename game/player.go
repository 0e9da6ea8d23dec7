package game

import "fmt"

// SpawnPlayer creates a player for a client together with its flail and
// the rope joining them.
func (w *World) SpawnPlayer(name, client string, pos Vec) *Entity {
	color := w.randomColor()
	p := NewPlayer(name, client, pos)
	p.Color = color
	w.Spawn(p)

	n := w.Params.RopeSegments
	reach := w.Params.RopeRestLength * float64(n+1)
	flail := w.Spawn(NewFlail(pos.Add(Vec{X: reach}), color))
	rope := w.SpawnRope(p, flail, n, w.Params.RopeK, w.Params.RopeRestLength)

	p.Player.Flail = flail.ID
	p.Player.Rope = rope.ID
	return p
}

// ApplyInput stores a client's input on its player and pushes the player
// toward the steering angle when the pointer is far enough away.
func (w *World) ApplyInput(id ID, in Input) error {
	p, ok := w.Entities.Get(id)
	if !ok || p.Kind != KindPlayer {
		return fmt.Errorf("input for %d: %w", id, ErrUnknownEntity)
	}
	p.Player.Input = in
	if in.Distance > MoveThreshold {
		force := MoveForce
		if in.Pressed {
			force *= BoostMult
		}
		p.ApplyForce(in.Angle, force, true)
	}
	return nil
}
