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
	"github.com/sfiera/bitgen/pkg/bitvec"
)

const (
	// MaxPacketFrames is the largest payload a header can describe.
	MaxPacketFrames = 255

	// DefaultPacketFrames is the payload limit used unless configured.
	DefaultPacketFrames = MaxPacketFrames
)

// A Packet is a header followed by Header.Payload frames.
type Packet struct {
	Header
	Frames []uint32
}

// CheckPacketFrames validates a maximum packet payload.
func CheckPacketFrames(max int) error {
	if max <= 0 || max > MaxPacketFrames {
		return &PacketSizeError{Frames: max}
	}
	return nil
}

// Paginate splits checksummed tiles, indexed by x then y, into packets of
// at most max frames and passes them to emit in transmission order.
//
// Packets go out in passes. Pass p visits the tiles from the last row to the
// first and, within a row, from the last column to the first, sending the
// p-th slice of every tile that still has frames left. Each tile is sent
// from its highest frame down. Pagination stops after the first pass in
// which every visited tile sent its last packet.
func Paginate(tiles [][]*bitvec.Vector, max int, emit func(Packet) error) error {
	if err := CheckPacketFrames(max); err != nil {
		return err
	}
	width := len(tiles)
	height := 0
	if width > 0 {
		height = len(tiles[0])
	}

	for pass := 0; ; pass++ {
		completed := true
		for y := height - 1; y >= 0; y-- {
			for x := width - 1; x >= 0; x-- {
				total := tiles[x][y].Len() / FrameSize
				sent := pass * max
				if sent >= total {
					continue
				}
				last := sent+max >= total
				completed = completed && last

				n := total - sent
				if n > max {
					n = max
				}
				pak := Packet{Frames: make([]uint32, n)}
				pak.Type = DataType(pass == 0, last)
				for i := range pak.Frames {
					pak.Frames[i] = tiles[x][y].Word32(total - sent - 1 - i)
				}
				if _, err := EncodeHeader(pak.Type, x, y, n); err != nil {
					return err
				}
				pak.X, pak.Y, pak.Payload = uint8(x), uint8(y), uint8(n)
				if err := emit(pak); err != nil {
					return err
				}
			}
		}
		if completed {
			return nil
		}
	}
}
