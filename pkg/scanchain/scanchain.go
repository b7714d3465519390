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

// Package scanchain builds bitstreams for fabrics configured through a
// single scan chain. There are no tiles, checksums or packets: every segment
// of a feature adds to its offset in one flat vector.
package scanchain

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sfiera/bitgen/pkg/bitvec"
	"github.com/sfiera/bitgen/pkg/fasm"
)

// WordSize is the number of bits per output line.
const WordSize = 64

// A Bitstream is the flat configuration vector of a scan chain.
type Bitstream struct {
	bits *bitvec.Vector
}

// New returns a zero-filled bitstream of at least size bits, rounded up to
// a whole number of words.
func New(size int) *Bitstream {
	bits := bitvec.New(size)
	bits.PadTo(WordSize)
	return &Bitstream{bits: bits}
}

// Len returns the size of the bitstream in bits.
func (b *Bitstream) Len() int {
	return b.bits.Len()
}

// Bits returns the underlying vector.
func (b *Bitstream) Bits() *bitvec.Vector {
	return b.bits
}

// Apply writes a feature at the sum of all of its segments.
func (b *Bitstream) Apply(f fasm.Feature) error {
	return f.Write(b.bits, fasm.AddOffsets(f.X, f.Y, f.Base))
}

// WriteTo writes the bitstream as 16-digit hexadecimal words, one per line,
// starting with the word holding bit 0.
func (b *Bitstream) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	n := int64(0)
	for i := 0; i < b.bits.Len()/WordSize; i++ {
		m, err := fmt.Fprintf(bw, "%016x\n", b.bits.Word64(i))
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
