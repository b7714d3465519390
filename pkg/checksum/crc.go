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

// Package checksum implements the CRC-8 used by pktchain tiles and its
// inverse, which computes the prefix checksum placed in front of a payload.
//
// The register starts at zero, consumes bits most significant first with the
// polynomial x^8+x^2+x+1 (0x07), and has no final XOR.
package checksum

import (
	"fmt"

	"github.com/sigurn/crc8"
)

const (
	// Poly is the CRC-8 polynomial with the x^8 term dropped.
	Poly = uint8(0x07)

	// unwindPoly undoes one zero-input step: (Poly >> 1) | 0x80.
	unwindPoly = uint8(0x83)
)

// NoPrefixError reports that no single byte produces the unwound register.
type NoPrefixError struct {
	CRC   uint8
	Zeros int
}

func (e *NoPrefixError) Error() string {
	return fmt.Sprintf("no prefix checksum for CRC-8 value 0x%02x prepended with %d zeros", e.CRC, e.Zeros)
}

var (
	byteTable = crc8.MakeTable(crc8.CRC8)

	// prefixes[c] is the byte whose CRC is c.
	prefixes = buildPrefixes()
)

type prefixEntry struct {
	value uint8
	ok    bool
}

func buildPrefixes() (t [256]prefixEntry) {
	for v := 0; v < 256; v++ {
		t[SumByte(uint8(v))] = prefixEntry{value: uint8(v), ok: true}
	}
	return t
}

// Step advances the register by one input bit.
func Step(reg uint8, bit bool) uint8 {
	top := reg&0x80 != 0
	reg <<= 1
	if top != bit {
		reg ^= Poly
	}
	return reg
}

// Sum returns the CRC of bits, bits[0] first.
func Sum(bits []bool) uint8 {
	// Leading zeros leave a zeroed register untouched, so left-padding the
	// sequence to whole bytes lets the table-driven checksum do the work.
	n := (len(bits) + 7) / 8
	pad := 8*n - len(bits)
	buf := make([]byte, n)
	for i, b := range bits {
		if b {
			pos := pad + i
			buf[pos/8] |= 0x80 >> uint(pos%8)
		}
	}
	return crc8.Checksum(buf, byteTable)
}

// SumByte returns the CRC of the eight bits of v, most significant first.
func SumByte(v uint8) uint8 {
	return crc8.Checksum([]byte{v}, byteTable)
}

// Unwind reverses zeros steps of the register, assuming every undone input
// bit was zero.
func Unwind(crc uint8, zeros int) uint8 {
	for i := 0; i < zeros; i++ {
		if crc&1 != 0 {
			crc = (crc >> 1) ^ unwindPoly
		} else {
			crc >>= 1
		}
	}
	return crc
}

// Prefix returns the byte p such that feeding p followed by zeros zero bits
// into a cleared register leaves it at crc.
func Prefix(crc uint8, zeros int) (uint8, error) {
	e := prefixes[Unwind(crc, zeros)]
	if !e.ok {
		return 0, &NoPrefixError{CRC: crc, Zeros: zeros}
	}
	return e.value, nil
}

// An Engine is a running CRC register, as kept by a streaming receiver.
type Engine struct {
	reg uint8
}

// Write feeds bits into the register.
func (e *Engine) Write(bits ...bool) {
	for _, b := range bits {
		e.reg = Step(e.reg, b)
	}
}

// WriteByte feeds the eight bits of v, most significant first.
func (e *Engine) WriteByte(v byte) error {
	for i := 7; i >= 0; i-- {
		e.reg = Step(e.reg, v&(1<<uint(i)) != 0)
	}
	return nil
}

// Sum returns the current register value.
func (e *Engine) Sum() uint8 {
	return e.reg
}

// Reset clears the register.
func (e *Engine) Reset() {
	e.reg = 0
}
