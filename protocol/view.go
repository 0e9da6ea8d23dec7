package protocol

import (
	"errors"
	"fmt"
)

// Entity type codes leading every creation payload.
const (
	TypePlayer    uint32 = 0
	TypeGenerator uint32 = 1
	TypeRope      uint32 = 2
	TypeFood      uint32 = 3
	TypeFlail     uint32 = 4
)

// Record flags.
const (
	FlagUpdate   uint32 = 0
	FlagCreation uint32 = 1
)

var (
	ErrUnknownEntity   = errors.New("protocol: record for unknown entity")
	ErrDuplicateCreate = errors.New("protocol: creation for known entity")
	ErrBadRecordFlag   = errors.New("protocol: bad record flag")
	ErrUnknownType     = errors.New("protocol: unknown entity type")
	ErrUnexpectedType  = errors.New("protocol: unexpected packet type")
)

type Point struct {
	X, Y int32
}

// EntityState is the client's view of one entity.
type EntityState struct {
	Type    uint32
	Name    string
	SubKind uint32
	Color   uint32
	Points  []Point
	Size    uint32
}

type Record struct {
	ID      uint32
	Created bool
	State   EntityState
}

// Update is one decoded PacketUpdate.
type Update struct {
	Deleted []uint32
	Records []Record
}

// ViewDecoder mirrors a client's view of the world. Update records carry no
// type code, so the decoder remembers every entity created and not yet deleted.
type ViewDecoder struct {
	known map[uint32]EntityState
}

func NewViewDecoder() *ViewDecoder {
	return &ViewDecoder{known: make(map[uint32]EntityState)}
}

// Decode parses an update packet and applies it to the mirrored view.
// On error the view may be partially updated and should be discarded.
func (d *ViewDecoder) Decode(b []byte) (Update, error) {
	r := NewReader(b)
	t, err := r.Vu()
	if err != nil {
		return Update{}, err
	}
	if t != PacketUpdate {
		return Update{}, fmt.Errorf("%w %d", ErrUnexpectedType, t)
	}

	var u Update
	for {
		id, err := r.Vu()
		if err != nil {
			return u, fmt.Errorf("deletion list: %w", err)
		}
		if id == 0 {
			break
		}
		if _, ok := d.known[id]; !ok {
			return u, fmt.Errorf("%w: delete %d", ErrUnknownEntity, id)
		}
		delete(d.known, id)
		u.Deleted = append(u.Deleted, id)
	}

	for {
		id, err := r.Vu()
		if err != nil {
			return u, fmt.Errorf("record list: %w", err)
		}
		if id == 0 {
			break
		}
		flag, err := r.Vu()
		if err != nil {
			return u, err
		}
		rec := Record{ID: id}
		state, known := d.known[id]
		switch flag {
		case FlagCreation:
			if known {
				return u, fmt.Errorf("%w: %d", ErrDuplicateCreate, id)
			}
			rec.Created = true
			state, err = readHeader(r)
			if err != nil {
				return u, fmt.Errorf("entity %d header: %w", id, err)
			}
		case FlagUpdate:
			if !known {
				return u, fmt.Errorf("%w: update %d", ErrUnknownEntity, id)
			}
		default:
			return u, fmt.Errorf("%w %d", ErrBadRecordFlag, flag)
		}
		if err := readState(r, &state); err != nil {
			return u, fmt.Errorf("entity %d state: %w", id, err)
		}
		d.known[id] = state
		rec.State = state
		u.Records = append(u.Records, rec)
	}

	if r.Remaining() != 0 {
		return u, ErrTrailingBytes
	}
	return u, nil
}

// Get returns the last decoded state of an entity in view.
func (d *ViewDecoder) Get(id uint32) (EntityState, bool) {
	s, ok := d.known[id]
	return s, ok
}

// Each calls fn for every entity in view, in no particular order.
func (d *ViewDecoder) Each(fn func(id uint32, s EntityState)) {
	for id, s := range d.known {
		fn(id, s)
	}
}

// Len is the number of entities currently in view.
func (d *ViewDecoder) Len() int {
	return len(d.known)
}

func readHeader(r *Reader) (EntityState, error) {
	var s EntityState
	var err error
	if s.Type, err = r.Vu(); err != nil {
		return s, err
	}
	switch s.Type {
	case TypePlayer:
		if s.Name, err = r.String(); err != nil {
			return s, err
		}
		s.Color, err = r.Vu()
	case TypeGenerator:
		if s.Name, err = r.String(); err != nil {
			return s, err
		}
		if s.SubKind, err = r.Vu(); err != nil {
			return s, err
		}
		s.Color, err = r.Vu()
	case TypeRope:
		var n uint32
		if n, err = r.Vu(); err != nil {
			return s, err
		}
		if uint64(n) > uint64(r.Remaining()) {
			return s, ErrTruncated
		}
		s.Points = make([]Point, n)
	case TypeFood, TypeFlail:
		s.Color, err = r.Vu()
	default:
		return s, fmt.Errorf("%w %d", ErrUnknownType, s.Type)
	}
	return s, err
}

func readState(r *Reader, s *EntityState) error {
	if s.Type == TypeRope {
		pts := make([]Point, len(s.Points))
		for i := range pts {
			p, err := readPoint(r)
			if err != nil {
				return err
			}
			pts[i] = p
		}
		s.Points = pts
		return nil
	}

	p, err := readPoint(r)
	if err != nil {
		return err
	}
	s.Points = []Point{p}
	s.Size, err = r.Vu()
	return err
}

func readPoint(r *Reader) (Point, error) {
	x, err := r.Vi()
	if err != nil {
		return Point{}, err
	}
	y, err := r.Vi()
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// PacketType peeks at the leading type of a server frame.
func PacketType(b []byte) (uint32, error) {
	return NewReader(b).Vu()
}

// DecodeInit returns the world size carried by PacketInit.
func DecodeInit(b []byte) (uint32, error) {
	return decodeSingle(b, PacketInit)
}

// DecodePlayerID returns the id carried by PacketPlayerID.
func DecodePlayerID(b []byte) (uint32, error) {
	return decodeSingle(b, PacketPlayerID)
}

func decodeSingle(b []byte, want uint32) (uint32, error) {
	r := NewReader(b)
	t, err := r.Vu()
	if err != nil {
		return 0, err
	}
	if t != want {
		return 0, fmt.Errorf("%w %d", ErrUnexpectedType, t)
	}
	v, err := r.Vu()
	if err != nil {
		return 0, err
	}
	if r.Remaining() != 0 {
		return 0, ErrTrailingBytes
	}
	return v, nil
}
