package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Bitmap is a set of small non-negative ints, register slots mostly.
	Bitmap struct {
		b  []uint64
		b0 [1]uint64
	}
)

func MakeBitmap(n int) Bitmap {
	s := Bitmap{}
	s.b = s.b0[:]

	if w := (n + 63) / 64; w > len(s.b) {
		s.b = make([]uint64, w)
	}

	return s
}

func (s *Bitmap) Set(i int) {
	w, j := i/64, uint(i%64)

	for w >= len(s.b) {
		s.b = append(s.b, 0)
	}

	s.b[w] |= 1 << j
}

func (s *Bitmap) IsSet(i int) bool {
	w, j := i/64, uint(i%64)

	return w < len(s.b) && s.b[w]&(1<<j) != 0
}

// Filter returns elements of s for which f is true.
func (s *Bitmap) Filter(f func(i int) bool) Bitmap {
	r := MakeBitmap(len(s.b) * 64)

	s.Range(func(i int) bool {
		if f(i) {
			r.Set(i)
		}

		return true
	})

	return r
}

func (s *Bitmap) Size() (n int) {
	if s == nil {
		return 0
	}

	for _, w := range s.b {
		n += bits.OnesCount64(w)
	}

	return n
}

// Range calls f in ascending order until it returns false.
func (s *Bitmap) Range(f func(i int) bool) {
	for w, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << uint(j)

			if !f(w*64 + j) {
				return
			}
		}
	}
}

func (s Bitmap) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(i int) bool {
		b = e.AppendInt(b, i)

		return true
	})

	b = e.AppendBreak(b)

	return b
}
