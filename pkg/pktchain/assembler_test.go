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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pkt(typ MsgType, x, y uint8, frames ...uint32) Packet {
	return Packet{Header: Header{Type: typ, X: x, Y: y, Payload: uint8(len(frames))}, Frames: frames}
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler()
	for _, pak := range []Packet{
		pkt(MsgSOB, 0, 0),
		pkt(MsgDataInit, 1, 0, 5, 4),
		pkt(MsgDataInitChecksum, 0, 0, 9),
		pkt(MsgData, 1, 0, 3, 2),
		pkt(MsgDataInit, 0, 1, 7),
	} {
		assert.NoError(a.Add(pak))
	}
	assert.Equal([]Coord{{0, 0}}, a.Complete())
	assert.Equal([]Coord{{0, 1}, {1, 0}}, a.Incomplete())

	assert.NoError(a.Add(pkt(MsgDataChecksum, 1, 0, 1, 0)))
	tile, ok := a.Tile(1, 0)
	if assert.True(ok) {
		assert.Equal(6*FrameSize, tile.Len())
		for i := 0; i < 6; i++ {
			assert.Equal(uint32(i), tile.Word32(i))
		}
	}
	_, ok = a.Tile(0, 1)
	assert.False(ok)
	assert.Equal([]Coord{{0, 0}, {1, 0}}, a.Complete())
	assert.Equal([]Coord{{0, 1}}, a.Incomplete())
}

func TestAssemblerSequence(t *testing.T) {
	for _, tt := range []struct {
		name string
		paks []Packet
		err  string
	}{{
		"data_before_init",
		[]Packet{pkt(MsgData, 1, 2, 0)},
		"DATA packet to (1, 2): tile not open",
	}, {
		"checksum_before_init",
		[]Packet{pkt(MsgDataChecksum, 1, 2, 0)},
		"DATA_CHECKSUM packet to (1, 2): tile not open",
	}, {
		"double_init",
		[]Packet{pkt(MsgDataInit, 0, 0, 0), pkt(MsgDataInit, 0, 0, 0)},
		"DATA_INIT packet to (0, 0): tile already open",
	}, {
		"reprogram",
		[]Packet{pkt(MsgDataInitChecksum, 0, 0, 0), pkt(MsgDataInitChecksum, 0, 0, 0)},
		"DATA_INIT_CHECKSUM packet to (0, 0): tile already complete",
	}, {
		"response",
		[]Packet{pkt(MsgDataAck, 0, 0)},
		"DATA_ACK packet to (0, 0): not a programming packet",
	}, {
		"payload",
		[]Packet{{Header: Header{Type: MsgDataInit, Payload: 3}, Frames: []uint32{1}}},
		"DATA_INIT packet to (0, 0): payload size mismatch",
	}} {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			a := NewAssembler()
			var err error
			for _, pak := range tt.paks {
				if err = a.Add(pak); err != nil {
					break
				}
			}
			var serr *SequenceError
			if assert.True(errors.As(err, &serr)) {
				assert.EqualError(err, tt.err)
			}
		})
	}
}
