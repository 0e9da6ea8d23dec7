package protocol

import (
	"errors"
	"math"
)

// Decoding errors. Any of them means the peer sent a malformed frame.
var (
	ErrTruncated    = errors.New("protocol: read past end of buffer")
	ErrOverflow     = errors.New("protocol: varint overflows 32 bits")
	ErrNonCanonical = errors.New("protocol: non-canonical varint")
)

// MaxVarintLen is the longest encoding of a 32-bit value.
const MaxVarintLen = 5

// Writer appends varints, strings and raw bytes to a growable buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Vu writes an unsigned varint: 7 bits per byte, low group first,
// high bit set while more bytes follow.
func (w *Writer) Vu(v uint32) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

// Vi writes a zigzag encoded signed varint.
func (w *Writer) Vi(v int32) {
	w.Vu(zigzag(v))
}

// String writes the byte length as a varint followed by the bytes.
func (w *Writer) String(s string) {
	w.Vu(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bool writes 1 or 0 as an unsigned varint.
func (w *Writer) Bool(b bool) {
	if b {
		w.Vu(1)
		return
	}
	w.Vu(0)
}

// Coord writes a float coordinate rounded to the nearest integer.
func (w *Writer) Coord(f float64) {
	w.Vi(clampInt32(math.Round(f)))
}

// Bytes returns the written bytes. The slice aliases the writer's buffer
// until the next Reset.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Reader is a cursor over an input buffer.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Vu() (uint32, error) {
	var v uint32
	for i := 0; i < MaxVarintLen; i++ {
		if r.pos >= len(r.buf) {
			return 0, ErrTruncated
		}
		b := r.buf[r.pos]
		r.pos++
		if i == MaxVarintLen-1 && b > 0x0f {
			return 0, ErrOverflow
		}
		v |= uint32(b&0x7f) << (7 * i)
		if b < 0x80 {
			if i > 0 && b == 0 {
				return 0, ErrNonCanonical
			}
			return v, nil
		}
	}
	return 0, ErrOverflow
}

func (r *Reader) Vi() (int32, error) {
	u, err := r.Vu()
	if err != nil {
		return 0, err
	}
	return unzigzag(u), nil
}

func (r *Reader) String() (string, error) {
	n, err := r.Vu()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(len(r.buf)-r.pos) {
		return "", ErrTruncated
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// Bool reads an unsigned varint and reports whether it is non-zero.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Vu()
	return v != 0, err
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func zigzag(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}

func unzigzag(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

func clampInt32(f float64) int32 {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	case math.IsNaN(f):
		return 0
	}
	return int32(f)
}
