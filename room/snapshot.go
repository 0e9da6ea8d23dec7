package room

import (
	"github.com/vmihailenco/msgpack/v5"

	"arena/game"
)

// Snapshot is a debug dump of a room, served msgpack encoded.
type Snapshot struct {
	Code     string           `msgpack:"code"`
	Tick     uint64           `msgpack:"tick"`
	Clients  int              `msgpack:"clients"`
	Players  int              `msgpack:"players"`
	Food     int              `msgpack:"food"`
	Entities []EntitySnapshot `msgpack:"entities"`
}

type EntitySnapshot struct {
	ID   uint32  `msgpack:"id"`
	Kind string  `msgpack:"kind"`
	Name string  `msgpack:"name,omitempty"`
	X    float64 `msgpack:"x"`
	Y    float64 `msgpack:"y"`
	Size float64 `msgpack:"size"`
}

func (s Snapshot) Marshal() ([]byte, error) {
	return msgpack.Marshal(&s)
}

func UnmarshalSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	err := msgpack.Unmarshal(b, &s)
	return s, err
}

func (r *Room) snapshot() Snapshot {
	s := Snapshot{
		Code:     r.Code,
		Tick:     r.world.Tick,
		Clients:  len(r.clients),
		Players:  r.NumPlayers(),
		Food:     r.world.FoodCount(),
		Entities: make([]EntitySnapshot, 0, r.world.Entities.Len()),
	}
	r.world.Entities.Each(func(e *game.Entity) {
		if e.Kind == game.KindRopeSegment {
			return
		}
		s.Entities = append(s.Entities, EntitySnapshot{
			ID:   uint32(e.ID),
			Kind: e.Kind.String(),
			Name: e.Name,
			X:    e.Pos.X,
			Y:    e.Pos.Y,
			Size: e.Size,
		})
	})
	return s
}
