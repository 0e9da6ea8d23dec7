package protocol

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestVuRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 300, 16383, 16384, 1 << 21, 1<<28 - 1, 1 << 28, math.MaxUint32}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		values = append(values, rng.Uint32())
	}
	for _, v := range values {
		w := NewWriter()
		w.Vu(v)
		r := NewReader(w.Bytes())
		got, err := r.Vu()
		if err != nil {
			t.Fatalf("Vu(%d) decode: %v", v, err)
		}
		if got != v {
			t.Fatalf("Vu round trip = %d, want %d", got, v)
		}
		if r.Remaining() != 0 {
			t.Fatalf("Vu(%d) left %d bytes", v, r.Remaining())
		}
	}
}

func TestViRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 63, -64, 64, -65, 1000, -1000, math.MaxInt32, math.MinInt32}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		values = append(values, int32(rng.Uint32()))
	}
	for _, v := range values {
		w := NewWriter()
		w.Vi(v)
		got, err := NewReader(w.Bytes()).Vi()
		if err != nil {
			t.Fatalf("Vi(%d) decode: %v", v, err)
		}
		if got != v {
			t.Fatalf("Vi round trip = %d, want %d", got, v)
		}
	}
}

func TestVarintEncodings(t *testing.T) {
	w := NewWriter()
	w.Vu(300)
	if !bytes.Equal(w.Bytes(), []byte{0xac, 0x02}) {
		t.Fatalf("Vu(300) = % x, want ac 02", w.Bytes())
	}

	w.Reset()
	w.Vi(-1)
	if !bytes.Equal(w.Bytes(), []byte{0x01}) {
		t.Fatalf("Vi(-1) = % x, want 01", w.Bytes())
	}

	w.Reset()
	w.Vi(-64)
	if w.Len() != 1 {
		t.Fatalf("Vi(-64) should fit in one byte, got % x", w.Bytes())
	}
}

func TestDecodeReencodeIsExact(t *testing.T) {
	inputs := [][]byte{
		{0x00},
		{0x7f},
		{0x80, 0x01},
		{0xff, 0xff, 0xff, 0xff, 0x0f},
	}
	for _, in := range inputs {
		v, err := NewReader(in).Vu()
		if err != nil {
			t.Fatalf("decode % x: %v", in, err)
		}
		w := NewWriter()
		w.Vu(v)
		if !bytes.Equal(w.Bytes(), in) {
			t.Fatalf("re-encode of % x = % x", in, w.Bytes())
		}
	}
}

func TestVuRejectsMalformed(t *testing.T) {
	cases := []struct {
		in   []byte
		want error
	}{
		{nil, ErrTruncated},
		{[]byte{0x80}, ErrTruncated},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x10}, ErrOverflow},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, ErrOverflow},
		{[]byte{0x80, 0x00}, ErrNonCanonical},
	}
	for _, c := range cases {
		_, err := NewReader(c.in).Vu()
		if !errors.Is(err, c.want) {
			t.Fatalf("Vu(% x) err = %v, want %v", c.in, err, c.want)
		}
	}
}

func TestStringRoundTripAndTruncation(t *testing.T) {
	w := NewWriter()
	w.String("Alice")
	w.String("")
	w.String("żółw")
	r := NewReader(w.Bytes())
	for _, want := range []string{"Alice", "", "żółw"} {
		got, err := r.String()
		if err != nil {
			t.Fatalf("String decode: %v", err)
		}
		if got != want {
			t.Fatalf("String = %q, want %q", got, want)
		}
	}

	if _, err := NewReader([]byte{0x05, 'a', 'b'}).String(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short string err = %v, want ErrTruncated", err)
	}
}

func TestCoordRoundsAndClamps(t *testing.T) {
	w := NewWriter()
	w.Coord(10.6)
	w.Coord(-10.6)
	w.Coord(1e12)
	r := NewReader(w.Bytes())
	for _, want := range []int32{11, -11, math.MaxInt32} {
		got, err := r.Vi()
		if err != nil {
			t.Fatalf("Coord decode: %v", err)
		}
		if got != want {
			t.Fatalf("Coord = %d, want %d", got, want)
		}
	}
}
