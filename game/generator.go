package game

import "math"

// FoodCount is how many food a generator sheds when hit at speed m.
func FoodCount(m float64) int {
	if m <= 0 {
		return 0
	}
	return int(math.Floor(math.Log(m+1) / math.Log(FoodLogBase)))
}

func (w *World) tickGenerator(g *Entity) {
	g.Generator.Pulse *= GeneratorPulseDecay
}

// generatorCollide pushes overlapping entities out and, when a player or a
// flail strikes it off cooldown, launches food out along the hit direction.
func generatorCollide(w *World, g, other *Entity) {
	delta := g.Pos.Sub(other.Pos)
	if delta.Mag() >= g.Size+other.Size {
		return
	}
	normal := delta.Dir()
	other.ApplyForce(normal+math.Pi, g.Knockback, true)

	if other.Kind != KindPlayer && other.Kind != KindFlail {
		return
	}
	gs := g.Generator
	if !gs.Ready(w.Tick) {
		return
	}
	gs.Pulse = GeneratorPulse
	gs.LastHit = w.Tick
	gs.Hit = true

	n := FoodCount(other.Vel.Mag())
	for i := 0; i < n; i++ {
		if w.Params.MaxFood > 0 && w.foodCount >= w.Params.MaxFood {
			break
		}
		tier := FoodCommon
		if w.rng.Float64() >= FoodCommonChance {
			tier = FoodRare
		}
		food := w.Spawn(NewFood(tier, g.Pos, w.randomColor()))
		food.ApplyAcceleration(normal+w.rng.Float64()*FoodSpread-FoodSpread/2, w.rng.Float64()*FoodMaxLaunch)
	}
}
