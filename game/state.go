package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"
)

var ErrUnknownEntity = errors.New("game: unknown entity")

// World is the authoritative simulation context of one arena: the entity
// registry, the spatial index and the tick counter. It is not safe for
// concurrent use; one goroutine drives it.
type World struct {
	Params   Params
	Entities *Registry
	Grid     *Grid
	Tick     uint64

	rng        *rand.Rand
	logger     *log.Logger
	foodCount  int
	collideBuf []ID
}

func NewWorld(p Params, logger *log.Logger) *World {
	if logger == nil {
		logger = log.Default()
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &World{
		Params:   p,
		Entities: NewRegistry(),
		Grid:     NewGrid(p.CellSize),
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger,
	}
}

// Spawn registers e, assigns its id and indexes it at its current position.
func (w *World) Spawn(e *Entity) *Entity {
	w.Entities.Add(e)
	if err := w.Grid.Insert(e); err != nil {
		w.Invariant("spawn %s %d: %v", e.Kind, e.ID, err)
	}
	if e.Kind == KindFood {
		w.foodCount++
	}
	return e
}

func (w *World) Get(id ID) (*Entity, bool) {
	return w.Entities.Get(id)
}

// Destroy removes an entity and everything it owns: a rope takes its
// segments with it, a player its rope and flail.
func (w *World) Destroy(id ID) error {
	e, ok := w.Entities.Get(id)
	if !ok {
		return fmt.Errorf("destroy %d: %w", id, ErrUnknownEntity)
	}
	w.Entities.Remove(id)
	if err := w.Grid.Remove(id); err != nil {
		w.Invariant("destroy %s %d: %v", e.Kind, id, err)
	}

	switch e.Kind {
	case KindFood:
		w.foodCount--
	case KindRope:
		for _, link := range e.Rope.Links {
			if seg, ok := w.Entities.Get(link); ok && seg.Kind == KindRopeSegment {
				_ = w.Destroy(link)
			}
		}
	case KindPlayer:
		if e.Player.Rope != 0 {
			_ = w.Destroy(e.Player.Rope)
		}
		if e.Player.Flail != 0 {
			_ = w.Destroy(e.Player.Flail)
		}
	}
	return nil
}

// Query returns ids whose grid cell intersects the circle, appended to out.
func (w *World) Query(center Vec, radius float64, out []ID) []ID {
	return w.Grid.Query(center, radius, out)
}

// Invariant reports a programming error: a panic in strict worlds, a logged
// warning otherwise. Callers must leave state untouched after it returns.
func (w *World) Invariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.Params.Strict {
		panic("invariant violated: " + msg)
	}
	w.logger.Printf("warning: invariant violated: %s", msg)
}

// Advance closes the tick: the counter moves on and the registry reclaims
// slots of entities destroyed during the tick.
func (w *World) Advance() {
	w.Tick++
	w.Entities.Compact()
}

func (w *World) FoodCount() int {
	return w.foodCount
}

// RandomPosition picks a uniformly random point inside the arena.
func (w *World) RandomPosition() Vec {
	return Vec{X: w.rng.Float64() * w.Params.WorldSize, Y: w.rng.Float64() * w.Params.WorldSize}
}

// Populate seeds the arena with generators and loose food.
func (w *World) Populate() {
	for i := 0; i < w.Params.Generators; i++ {
		g := NewGenerator(w.RandomPosition(), w.Params.GeneratorCooldown)
		g.Name = fmt.Sprintf("Generator %d", i+1)
		w.Spawn(g)
	}
	for i := 0; i < w.Params.InitialFood; i++ {
		tier := FoodCommon
		if w.rng.Float64() >= FoodCommonChance {
			tier = FoodRare
		}
		w.Spawn(NewFood(tier, w.RandomPosition(), w.randomColor()))
	}
}

func (w *World) randomColor() uint32 {
	return uint32(w.rng.Intn(360))
}
