package game

import (
	"math"

	"arena/protocol"
)

// WriteEntity encodes e's record payload. A creation payload is the
// kind-specific header followed by the same state an update carries.
func (w *World) WriteEntity(wr *protocol.Writer, e *Entity, created bool) {
	if created {
		writeHeader(wr, e)
	}

	if e.Kind == KindRope {
		for _, id := range e.Rope.Links {
			pos := e.Pos
			if link, ok := w.Entities.Get(id); ok {
				pos = link.Pos
			}
			wr.Coord(pos.X)
			wr.Coord(pos.Y)
		}
		return
	}

	size := e.Size
	if e.Kind == KindGenerator {
		size += e.Generator.Pulse
	}
	wr.Coord(e.Pos.X)
	wr.Coord(e.Pos.Y)
	wr.Vu(uint32(math.Round(size)))
}

func writeHeader(wr *protocol.Writer, e *Entity) {
	wr.Vu(e.Kind.TypeCode())
	switch e.Kind {
	case KindPlayer:
		wr.String(e.Name)
		wr.Vu(e.Color)
	case KindGenerator:
		wr.String(e.Name)
		wr.Vu(e.Style)
		wr.Vu(e.Color)
	case KindRope:
		wr.Vu(uint32(len(e.Rope.Links)))
	default:
		wr.Vu(e.Color)
	}
}
