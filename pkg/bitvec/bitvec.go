// Copyright (c) 2009-2023 Rob Braun <bbraun@synack.net> and others
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of Rob Braun nor the names of his contributors
//    may be used to endorse or promote products derived from this software
//    without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT OWNER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package bitvec implements the fixed-length bit vectors that carry
// configuration state through bitstream generation.
//
// Bit i of a Vector is stored at position i%64 of word i/64, so the vector
// packs into little-endian words directly: the 32-bit frame k of a vector
// holds bits [32k, 32k+32) with bit 32k in its least significant position.
package bitvec

import (
	"fmt"
	"strings"
)

// A Vector is an ordered sequence of bits with a fixed length.
type Vector struct {
	words []uint64
	n     int
}

// RangeError reports a write that does not fit inside a vector.
type RangeError struct {
	Lo, Hi int // inclusive bit range that was addressed
	Len    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("bit range [%d, %d] outside vector of %d bits", e.Lo, e.Hi, e.Len)
}

// New returns a zero-filled vector of n bits.
func New(n int) *Vector {
	if n < 0 {
		panic("bitvec: negative length")
	}
	return &Vector{words: make([]uint64, (n+63)/64), n: n}
}

// FromBits returns a vector holding bits, bits[0] at index 0.
func FromBits(bits []bool) *Vector {
	v := New(len(bits))
	for i, b := range bits {
		v.Set(i, b)
	}
	return v
}

// FromWords32 returns a vector made of 32-bit little-endian frames.
func FromWords32(words []uint32) *Vector {
	v := New(32 * len(words))
	for i, w := range words {
		v.words[i/2] |= uint64(w) << (32 * uint(i%2))
	}
	return v
}

// Len returns the length of v in bits.
func (v *Vector) Len() int {
	return v.n
}

// Get returns bit i. It panics if i is out of range.
func (v *Vector) Get(i int) bool {
	v.check(i)
	return v.words[i/64]&(1<<uint(i%64)) != 0
}

// Set sets bit i to b. It panics if i is out of range.
func (v *Vector) Set(i int, b bool) {
	v.check(i)
	if b {
		v.words[i/64] |= 1 << uint(i%64)
	} else {
		v.words[i/64] &^= 1 << uint(i%64)
	}
}

// SetRange copies bits into v starting at index lo.
// Nothing is written if any part of the range falls outside v.
func (v *Vector) SetRange(lo int, bits []bool) error {
	hi := lo + len(bits) - 1
	if lo < 0 || hi >= v.n {
		return &RangeError{Lo: lo, Hi: hi, Len: v.n}
	}
	for i, b := range bits {
		v.Set(lo+i, b)
	}
	return nil
}

func (v *Vector) check(i int) {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("bitvec: index %d out of range [0, %d)", i, v.n))
	}
}

// Append extends v by the bits of w.
func (v *Vector) Append(w *Vector) {
	n := v.n
	v.Grow(w.n)
	for i := 0; i < w.n; i++ {
		if w.Get(i) {
			v.Set(n+i, true)
		}
	}
}

// Grow extends v by n zero bits.
func (v *Vector) Grow(n int) {
	v.n += n
	for len(v.words) < (v.n+63)/64 {
		v.words = append(v.words, 0)
	}
}

// PadTo extends v with zero bits up to the next multiple of m.
func (v *Vector) PadTo(m int) {
	if r := v.n % m; r != 0 {
		v.Grow(m - r)
	}
}

// Slice returns a copy of bits [lo, hi).
func (v *Vector) Slice(lo, hi int) *Vector {
	s := New(hi - lo)
	for i := lo; i < hi; i++ {
		if v.Get(i) {
			s.Set(i-lo, true)
		}
	}
	return s
}

// Word32 returns the 32-bit frame k, that is bits [32k, 32k+32).
// Bits past the end of v read as zero.
func (v *Vector) Word32(k int) uint32 {
	if k < 0 || 32*k >= v.n {
		panic(fmt.Sprintf("bitvec: frame %d out of range", k))
	}
	return uint32(v.words[k/2] >> (32 * uint(k%2)))
}

// Word64 returns the quad-word k, that is bits [64k, 64k+64).
// Bits past the end of v read as zero.
func (v *Vector) Word64(k int) uint64 {
	if k < 0 || 64*k >= v.n {
		panic(fmt.Sprintf("bitvec: quad-word %d out of range", k))
	}
	return v.words[k]
}

// Lane returns every width-th bit of v starting at index idx, ordered from
// the most significant end of v towards index 0.
func (v *Vector) Lane(idx, width int) []bool {
	lane := make([]bool, 0, v.n/width+1)
	top := v.n - 1
	top -= ((top-idx)%width + width) % width
	for i := top; i >= 0; i -= width {
		lane = append(lane, v.Get(i))
	}
	return lane
}

// OnesCount returns the number of set bits in v.
func (v *Vector) OnesCount() int {
	n := 0
	for i := 0; i < v.n; i++ {
		if v.Get(i) {
			n++
		}
	}
	return n
}

// Equal reports whether v and w hold the same bits.
func (v *Vector) Equal(w *Vector) bool {
	if v.n != w.n {
		return false
	}
	for i := range v.words {
		if v.words[i] != w.words[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of v.
func (v *Vector) Clone() *Vector {
	c := &Vector{words: make([]uint64, len(v.words)), n: v.n}
	copy(c.words, v.words)
	return c
}

// String renders v most significant bit first, like a Verilog literal.
func (v *Vector) String() string {
	buf := strings.Builder{}
	for i := v.n - 1; i >= 0; i-- {
		if v.Get(i) {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	}
	return buf.String()
}
