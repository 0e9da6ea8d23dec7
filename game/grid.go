package game

import (
	"errors"
	"math"
	"slices"
)

var (
	ErrNotIndexed     = errors.New("grid: entity not indexed")
	ErrAlreadyIndexed = errors.New("grid: entity already indexed")
)

type cellKey struct {
	X int
	Y int
}

// Grid is the broad-phase index: a uniform grid hashed by
// floor(position / cellSize). It holds ids only; the registry owns entities.
type Grid struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]ID
	entries     map[ID]cellKey
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]ID),
		entries:     make(map[ID]cellKey),
	}
}

func (g *Grid) Insert(e *Entity) error {
	if _, ok := g.entries[e.ID]; ok {
		return ErrAlreadyIndexed
	}
	key := g.keyFor(e.Pos)
	g.entries[e.ID] = key
	g.cells[key] = append(g.cells[key], e.ID)
	return nil
}

// Update re-buckets e after its position changed.
func (g *Grid) Update(e *Entity) error {
	old, ok := g.entries[e.ID]
	if !ok {
		return ErrNotIndexed
	}
	key := g.keyFor(e.Pos)
	if key == old {
		return nil
	}
	g.removeFromCell(e.ID, old)
	g.entries[e.ID] = key
	g.cells[key] = append(g.cells[key], e.ID)
	return nil
}

// Remove drops id from the grid. Removing an absent id is an error so that
// double removals surface.
func (g *Grid) Remove(id ID) error {
	key, ok := g.entries[id]
	if !ok {
		return ErrNotIndexed
	}
	g.removeFromCell(id, key)
	delete(g.entries, id)
	return nil
}

func (g *Grid) Len() int {
	return len(g.entries)
}

// Query appends to out every id whose cell intersects the bounding square of
// the circle. The result is a superset of the ids inside the circle.
func (g *Grid) Query(center Vec, radius float64, out []ID) []ID {
	if radius < 0 {
		radius = 0
	}
	minX := g.coordToCell(center.X - radius)
	maxX := g.coordToCell(center.X + radius)
	minY := g.coordToCell(center.Y - radius)
	maxY := g.coordToCell(center.Y + radius)

	span := (float64(maxX-minX) + 1) * (float64(maxY-minY) + 1)
	if span > float64(len(g.cells)) {
		return g.querySparse(minX, maxX, minY, maxY, out)
	}

	for row := minY; row <= maxY; row++ {
		for col := minX; col <= maxX; col++ {
			out = append(out, g.cells[cellKey{X: col, Y: row}]...)
		}
	}
	return out
}

// querySparse walks occupied cells instead of the query rectangle when the
// rectangle covers more cells than are occupied.
func (g *Grid) querySparse(minX, maxX, minY, maxY int, out []ID) []ID {
	keys := make([]cellKey, 0, len(g.cells))
	for key := range g.cells {
		if key.X >= minX && key.X <= maxX && key.Y >= minY && key.Y <= maxY {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b cellKey) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	for _, key := range keys {
		out = append(out, g.cells[key]...)
	}
	return out
}

func (g *Grid) removeFromCell(id ID, key cellKey) {
	bucket := g.cells[key]
	for i := range bucket {
		if bucket[i] != id {
			continue
		}
		bucket[i] = bucket[len(bucket)-1]
		bucket = bucket[:len(bucket)-1]
		break
	}
	if len(bucket) == 0 {
		delete(g.cells, key)
	} else {
		g.cells[key] = bucket
	}
}

func (g *Grid) keyFor(p Vec) cellKey {
	return cellKey{X: g.coordToCell(p.X), Y: g.coordToCell(p.Y)}
}

func (g *Grid) coordToCell(v float64) int {
	c := math.Floor(v * g.invCellSize)
	switch {
	case c > math.MaxInt32:
		return math.MaxInt32
	case c < math.MinInt32:
		return math.MinInt32
	}
	return int(c)
}
