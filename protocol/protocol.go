package protocol

import (
	"errors"
	"fmt"
)

// Client -> server packet types.
const (
	PacketInput uint32 = 0
	PacketJoin  uint32 = 1
)

// Server -> client packet types.
const (
	PacketUpdate   uint32 = 0
	PacketInit     uint32 = 1
	PacketPlayerID uint32 = 2
)

// AngleScale is the fixed-point scale of the input angle.
const AngleScale = 64

// MaxNameLength bounds the join name in bytes.
const MaxNameLength = 32

var (
	ErrUnknownPacket = errors.New("protocol: unknown packet type")
	ErrTrailingBytes = errors.New("protocol: trailing bytes after packet")
)

// Input is the steering snapshot a client sends every frame.
type Input struct {
	Pressed  bool
	Angle    float64 // radians
	Distance uint32
}

// Join asks the server to create the client's player.
type Join struct {
	Name string
}

// DecodeClient parses one client frame into an Input or a Join.
// Nothing is returned unless the whole frame decoded cleanly.
func DecodeClient(b []byte) (any, error) {
	r := NewReader(b)
	t, err := r.Vu()
	if err != nil {
		return nil, fmt.Errorf("packet type: %w", err)
	}

	var packet any
	switch t {
	case PacketInput:
		in, err := decodeInput(r)
		if err != nil {
			return nil, fmt.Errorf("input packet: %w", err)
		}
		packet = in
	case PacketJoin:
		name, err := r.String()
		if err != nil {
			return nil, fmt.Errorf("join packet: %w", err)
		}
		packet = Join{Name: name}
	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownPacket, t)
	}

	if r.Remaining() != 0 {
		return nil, ErrTrailingBytes
	}
	return packet, nil
}

func decodeInput(r *Reader) (Input, error) {
	pressed, err := r.Bool()
	if err != nil {
		return Input{}, err
	}
	angle, err := r.Vi()
	if err != nil {
		return Input{}, err
	}
	dist, err := r.Vu()
	if err != nil {
		return Input{}, err
	}
	return Input{
		Pressed:  pressed,
		Angle:    float64(angle) / AngleScale,
		Distance: dist,
	}, nil
}

// EncodeInput is the client side of PacketInput.
func EncodeInput(in Input) []byte {
	w := NewWriter()
	w.Vu(PacketInput)
	w.Bool(in.Pressed)
	w.Coord(in.Angle * AngleScale)
	w.Vu(in.Distance)
	return w.Bytes()
}

// EncodeJoin is the client side of PacketJoin.
func EncodeJoin(name string) []byte {
	w := NewWriter()
	w.Vu(PacketJoin)
	w.String(name)
	return w.Bytes()
}

func EncodeInit(worldSize uint32) []byte {
	w := NewWriter()
	w.Vu(PacketInit)
	w.Vu(worldSize)
	return w.Bytes()
}

func EncodePlayerID(id uint32) []byte {
	w := NewWriter()
	w.Vu(PacketPlayerID)
	w.Vu(id)
	return w.Bytes()
}
