package game

import "arena/protocol"

// ID identifies a live entity. Zero is never assigned.
type ID uint32

type Kind uint8

const (
	KindPlayer Kind = iota
	KindGenerator
	KindRope
	KindFood
	KindFlail
	KindRopeSegment
	kindCount
)

var kindNames = [kindCount]string{"player", "generator", "rope", "food", "flail", "segment"}

func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// TypeCode is the wire type leading a creation record.
func (k Kind) TypeCode() uint32 {
	switch k {
	case KindPlayer:
		return protocol.TypePlayer
	case KindGenerator:
		return protocol.TypeGenerator
	case KindRope:
		return protocol.TypeRope
	case KindFood:
		return protocol.TypeFood
	case KindFlail:
		return protocol.TypeFlail
	}
	return 0
}

type Flags uint8

const (
	FlagCollides Flags = 1 << iota
	FlagDetectsCollision
	FlagOnMinimap
	FlagSentToClient
	FlagRopeAffected
	// FlagStatic entities are never moved by the integrator.
	FlagStatic
)

func (f Flags) Has(x Flags) bool { return f&x == x }

// Entity is the tagged variant for everything in the world. Exactly one of
// the kind state pointers is set, matching Kind.
type Entity struct {
	ID    ID
	Kind  Kind
	Flags Flags

	Pos   Vec
	Vel   Vec
	Force Vec

	Size       float64
	Knockback  float64
	Resistance float64
	RestLength float64

	Style uint32
	Color uint32
	Name  string

	Player    *PlayerState
	Generator *GeneratorState
	Rope      *RopeState
	Segment   *SegmentState
	Food      *FoodState
}

// Input is the steering state a client attributes to its player.
type Input struct {
	Angle    float64
	Distance float64
	Pressed  bool
}

type PlayerState struct {
	Client string
	Input  Input
	Flail  ID
	Rope   ID
}

type GeneratorState struct {
	Cooldown uint64
	LastHit  uint64
	Hit      bool
	Pulse    float64
}

// Ready reports whether the generator is off cooldown at tick.
func (g *GeneratorState) Ready(tick uint64) bool {
	return !g.Hit || tick-g.LastHit > g.Cooldown
}

// RopeState holds the chain [owner, segments..., anchor] in fixed order.
type RopeState struct {
	Links      []ID
	Length     int
	K          float64
	RestLength float64
}

type SegmentState struct {
	Rope ID
}

type FoodTier uint8

const (
	FoodCommon FoodTier = iota
	FoodRare
)

type FoodState struct {
	Tier FoodTier
}

func NewPlayer(name, client string, pos Vec) *Entity {
	return &Entity{
		Kind:       KindPlayer,
		Flags:      FlagCollides | FlagOnMinimap | FlagSentToClient,
		Pos:        pos,
		Size:       PlayerSize,
		Knockback:  PlayerKnockback,
		Resistance: PlayerResistance,
		Name:       name,
		Player:     &PlayerState{Client: client},
	}
}

func NewFlail(pos Vec, color uint32) *Entity {
	return &Entity{
		Kind:      KindFlail,
		Flags:     FlagCollides | FlagSentToClient | FlagRopeAffected,
		Pos:       pos,
		Size:      FlailSize,
		Knockback: FlailKnockback,
		Color:     color,
	}
}

func NewGenerator(pos Vec, cooldown uint64) *Entity {
	return &Entity{
		Kind:      KindGenerator,
		Flags:     FlagCollides | FlagDetectsCollision | FlagOnMinimap | FlagSentToClient | FlagStatic,
		Pos:       pos,
		Size:      GeneratorSize,
		Knockback: GeneratorKnockback,
		Color:     GeneratorColor,
		Generator: &GeneratorState{Cooldown: cooldown},
	}
}

func NewFood(tier FoodTier, pos Vec, color uint32) *Entity {
	size := FoodSizeCommon
	if tier == FoodRare {
		size = FoodSizeRare
	}
	return &Entity{
		Kind:       KindFood,
		Flags:      FlagCollides | FlagSentToClient,
		Pos:        pos,
		Size:       size,
		Knockback:  1,
		Resistance: FoodResistance,
		Color:      color,
		Food:       &FoodState{Tier: tier},
	}
}

func newSegment(pos Vec, rest float64) *Entity {
	return &Entity{
		Kind:       KindRopeSegment,
		Flags:      FlagRopeAffected,
		Pos:        pos,
		Size:       SegmentSize,
		Knockback:  1,
		RestLength: rest,
		Segment:    &SegmentState{},
	}
}

func newRope(pos Vec, length int, k, rest float64) *Entity {
	return &Entity{
		Kind:       KindRope,
		Flags:      FlagSentToClient | FlagStatic,
		Pos:        pos,
		RestLength: rest,
		Rope:       &RopeState{Length: length, K: k, RestLength: rest},
	}
}
