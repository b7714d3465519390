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

// Package fasm decodes the feature assignments emitted by place-and-route,
// one configuration bit or bit range per line.
//
// A line is a dot-separated list of segments:
//
//	Line    = { Segment "." } BitSpec .
//	Segment = ( "x" | "y" | "b" ) integer .
//	BitSpec = "ignored" | Bit | Range .
//	Bit     = "b" integer .
//	Range   = "b" integer "[" integer ":" integer "]" "=" integer "'b" binary .
//
// Segments of the same kind add up. For example "x1.y2.b8.b5" sets bit 13
// of tile (1, 2). A line whose last segment is "ignored" sets nothing and
// its other segments are not read. Lines starting with "#" are comments.
package fasm

import (
	"errors"
	"fmt"
	"math"

	"github.com/sfiera/bitgen/pkg/bitvec"
)

var (
	// ErrSyntax is returned for lines that do not follow the grammar.
	ErrSyntax = errors.New("invalid feature line")
	// ErrRange is returned for a range whose high index is below its low index.
	ErrRange = errors.New("invalid range specifier")
	// ErrWidth is returned when a range's explicit width mismatches its literal.
	ErrWidth = errors.New("explicit width specifier mismatches with number of bits")
)

// SyntaxError reports a malformed assignment and where it was found.
type SyntaxError struct {
	Line int // 1-based; zero when parsing a lone line
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%q: %s", e.Text, e.Err.Error())
	}
	return fmt.Sprintf("line %d: %q: %s", e.Line, e.Text, e.Err.Error())
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// A Feature is one decoded assignment line.
type Feature struct {
	X, Y int // tile coordinates
	Base int // sum of the "b" segments before the bit spec
	Spec BitSpec
}

// A BitSpec is the final segment of a feature: Ignored, Bit or Range.
type BitSpec interface {
	isBitSpec()
}

type (
	// Ignored marks a feature that sets no bits.
	Ignored struct{}

	// Bit sets a single bit at Offset.
	Bit struct {
		Offset int
	}

	// Range writes a literal into bits [Offset+Low, Offset+High].
	Range struct {
		Offset    int
		High, Low int
		Width     int
		// Value holds the literal least significant bit first.
		Value []bool
	}
)

func (Ignored) isBitSpec() {}
func (Bit) isBitSpec()     {}
func (Range) isBitSpec()   {}

// AddOffsets sums bit offsets, saturating at math.MaxInt so that an
// overflowing sum lands outside any vector.
func AddOffsets(offsets ...int) int {
	sum := 0
	for _, o := range offsets {
		if o > 0 && sum > math.MaxInt-o {
			return math.MaxInt
		} else if o < 0 && sum < math.MinInt-o {
			return math.MinInt
		}
		sum += o
	}
	return sum
}

// Bits returns the High-Low+1 bits written by r, least significant first.
// A literal narrower than the range is zero-extended; a wider one keeps its
// low bits.
func (r Range) Bits() []bool {
	bits := make([]bool, r.High-r.Low+1)
	copy(bits, r.Value)
	return bits
}

// Write applies f to v, treating base as the offset of bit 0 of the feature.
// Out-of-range writes fail with a *bitvec.RangeError and leave v untouched.
func (f Feature) Write(v *bitvec.Vector, base int) error {
	switch s := f.Spec.(type) {
	case Ignored:
		return nil
	case Bit:
		return v.SetRange(AddOffsets(base, s.Offset), []bool{true})
	case Range:
		lo := AddOffsets(base, s.Offset, s.Low)
		hi := AddOffsets(base, s.Offset, s.High)
		if lo < 0 || hi >= v.Len() {
			return &bitvec.RangeError{Lo: lo, Hi: hi, Len: v.Len()}
		}
		return v.SetRange(lo, s.Bits())
	default:
		panic(fmt.Sprintf("fasm: unexpected bit spec %T", s))
	}
}
