package room

import (
	"slices"

	"arena/game"
	"arena/protocol"
)

// View is one client's view set: the entities it was last told about.
type View struct {
	seen    map[game.ID]struct{}
	current map[game.ID]struct{}
	visible []game.ID
	gone    []game.ID
	buf     []game.ID
}

func NewView() *View {
	return &View{
		seen:    make(map[game.ID]struct{}),
		current: make(map[game.ID]struct{}),
	}
}

func (v *View) Len() int {
	return len(v.seen)
}

func (v *View) Has(id game.ID) bool {
	_, ok := v.seen[id]
	return ok
}

// Sync writes an update packet to wr: deletion ids for entities that left
// the query area, a 0 terminator, a creation or update record for every
// visible entity, and a second 0 terminator. The view set is updated to match.
func (v *View) Sync(w *game.World, center game.Vec, radius float64, wr *protocol.Writer) {
	v.buf = w.Query(center, radius, v.buf[:0])
	v.visible = v.visible[:0]
	clear(v.current)
	for _, id := range v.buf {
		e, ok := w.Get(id)
		if !ok || !e.Flags.Has(game.FlagSentToClient) {
			continue
		}
		v.visible = append(v.visible, id)
		v.current[id] = struct{}{}
	}

	wr.Vu(protocol.PacketUpdate)

	v.gone = v.gone[:0]
	for id := range v.seen {
		if _, ok := v.current[id]; !ok {
			v.gone = append(v.gone, id)
		}
	}
	slices.Sort(v.gone)
	for _, id := range v.gone {
		wr.Vu(uint32(id))
	}
	for _, id := range v.gone {
		delete(v.seen, id)
	}
	wr.Vu(0)

	for _, id := range v.visible {
		e, _ := w.Get(id)
		_, known := v.seen[id]
		wr.Vu(uint32(id))
		if known {
			wr.Vu(protocol.FlagUpdate)
		} else {
			wr.Vu(protocol.FlagCreation)
			v.seen[id] = struct{}{}
		}
		w.WriteEntity(wr, e, !known)
	}
	wr.Vu(0)
}
