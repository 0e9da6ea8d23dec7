package game

import "math"

// solveRope runs one forward pass of spring relaxation over the chain.
// Stiff or long chains can oscillate; the pass is not iterated to convergence.
func (w *World) solveRope(rope *Entity) {
	rs := rope.Rope
	var prev *Entity
	for i, id := range rs.Links {
		cur, ok := w.Entities.Get(id)
		if !ok {
			prev = nil
			continue
		}
		if i == 0 {
			rope.Pos = cur.Pos
		}
		if prev != nil {
			applySpring(prev, cur, rs.K)
		}
		prev = cur
	}
}

func applySpring(a, b *Entity, k float64) {
	delta := a.Pos.Sub(b.Pos)
	overshoot := delta.Mag() - math.Max(a.RestLength, b.RestLength)
	force := delta.Unit().Scale(-k * overshoot)
	if a.Flags.Has(FlagRopeAffected) {
		a.ApplyForceVec(force, false)
	}
	if b.Flags.Has(FlagRopeAffected) {
		b.ApplyForceVec(force.Scale(-1), false)
	}
}

// SpawnRope links owner to anchor through length new segments laid out
// evenly on the line between them.
func (w *World) SpawnRope(owner, anchor *Entity, length int, k, rest float64) *Entity {
	rope := w.Spawn(newRope(owner.Pos, length, k, rest))
	links := make([]ID, 0, length+2)
	links = append(links, owner.ID)
	span := anchor.Pos.Sub(owner.Pos)
	for i := 1; i <= length; i++ {
		pos := owner.Pos.Add(span.Scale(float64(i) / float64(length+1)))
		seg := w.Spawn(newSegment(pos, rest))
		seg.Segment.Rope = rope.ID
		links = append(links, seg.ID)
	}
	links = append(links, anchor.ID)
	rope.Rope.Links = links
	return rope
}
