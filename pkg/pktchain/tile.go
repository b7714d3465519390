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

package pktchain

import (
	"fmt"

	"github.com/sfiera/bitgen/pkg/bitvec"
	"github.com/sfiera/bitgen/pkg/checksum"
)

// FrameSize is the number of bits in a frame.
const FrameSize = 32

// A checksummed tile is laid out as follows, bit 0 at the bottom. Frames are
// sent from the top down, so the receiver sees the padding first, then the
// prefix, the payload most significant bit first, and the suffix last.
//
//	+----------------------+ FramedLen(n, w)
//	| zero padding         |
//	+----------------------+ 16w + n
//	| prefix checksum (8w) |
//	+----------------------+ 8w + n
//	| payload (n)          |
//	+----------------------+ 8w
//	| suffix checksum (8w) |
//	+----------------------+ 0
//
// The payload is split into w lanes; bit j belongs to lane j%w. Each lane has
// its own CRC-8: bit i of lane l's checksum byte is at offset i*w + l of its
// checksum field. The suffix holds the CRC of the lane; the prefix holds the
// byte that drives the register to zero by the end of the payload, so a
// receiver can check each lane as it streams in.

// FramedLen returns the length of a checksummed tile with an n-bit payload
// and w lanes.
func FramedLen(n, w int) int {
	l := n + 16*w
	if r := l % FrameSize; r != 0 {
		l += FrameSize - r
	}
	return l
}

func checkWidth(n, w int) error {
	if w <= 0 || n%w != 0 {
		return &ConfigWidthError{Width: w, TileLen: n}
	}
	return nil
}

// FrameTile returns the checksummed, frame-aligned form of a tile payload
// for a configuration bus w bits wide.
func FrameTile(payload *bitvec.Vector, w int) (*bitvec.Vector, error) {
	n := payload.Len()
	if err := checkWidth(n, w); err != nil {
		return nil, err
	}

	prefix := bitvec.New(8 * w)
	suffix := bitvec.New(8 * w)
	for lane := 0; lane < w; lane++ {
		crc := checksum.Sum(payload.Lane(lane, w))
		pre, err := checksum.Prefix(crc, n/w)
		if err != nil {
			return nil, err
		}
		for i := 0; i < 8; i++ {
			prefix.Set(i*w+lane, pre&(1<<uint(i)) != 0)
			suffix.Set(i*w+lane, crc&(1<<uint(i)) != 0)
		}
	}

	framed := bitvec.New(0)
	framed.Append(suffix)
	framed.Append(payload)
	framed.Append(prefix)
	framed.PadTo(FrameSize)
	return framed, nil
}

// TilePayload extracts the n-bit payload of a checksummed tile.
func TilePayload(framed *bitvec.Vector, n, w int) (*bitvec.Vector, error) {
	if err := checkWidth(n, w); err != nil {
		return nil, err
	}
	if framed.Len() != FramedLen(n, w) {
		return nil, fmt.Errorf("framed tile of %d bits does not hold %d payload bits", framed.Len(), n)
	}
	return framed.Slice(8*w, 8*w+n), nil
}

// VerifyTile checks the padding and the checksums of every lane of a
// checksummed tile with an n-bit payload, replaying what the receiver does.
func VerifyTile(framed *bitvec.Vector, n, w int) error {
	payload, err := TilePayload(framed, n, w)
	if err != nil {
		return err
	}
	end := n + 16*w
	for i := end; i < framed.Len(); i++ {
		if framed.Get(i) {
			return fmt.Errorf("padding bit %d is set", i)
		}
	}

	body := framed.Slice(0, end)
	for lane := 0; lane < w; lane++ {
		bits := body.Lane(lane, w)
		e := checksum.Engine{}
		e.Write(bits[:len(bits)-8]...)
		if e.Sum() != 0 {
			return &ChecksumError{Lane: lane, Where: "prefix", Want: 0, Got: e.Sum()}
		}

		want := checksum.Sum(payload.Lane(lane, w))
		got := uint8(0)
		for _, b := range bits[len(bits)-8:] {
			got <<= 1
			if b {
				got |= 1
			}
		}
		if got != want {
			return &ChecksumError{Lane: lane, Where: "suffix", Want: want, Got: got}
		}
	}
	return nil
}
