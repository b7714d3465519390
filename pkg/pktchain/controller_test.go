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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeError(t *testing.T) {
	for _, tt := range []struct {
		name  string
		word  uint64
		want  DeviceError
		canon bool // word re-encodes to itself
	}{{
		"none",
		0x0000000000000000,
		NoError{},
		true,
	}, {
		"protocol_violation",
		0x0100000000000abc,
		AddrError{Kind: ErrorProtocolViolation, Addr: 0xabc},
		true,
	}, {
		"inval_wr_masked",
		0x020000000000fabc,
		AddrError{Kind: ErrorInvalWr, Addr: 0xabc},
		false,
	}, {
		"inval_rd",
		0x0300000000000018,
		AddrError{Kind: ErrorInvalRd, Addr: 0x018},
		true,
	}, {
		"incomplete_tiles",
		0x0407000000001234,
		TileCountError{Sub: BitstreamIncompleteTile, Tiles: 0x1234},
		true,
	}, {
		"error_tiles",
		0x0408000000000002,
		TileCountError{Sub: BitstreamErrorTiles, Tiles: 2},
		true,
	}, {
		"inval_pkt",
		0x0405000041000102,
		PacketError{Kind: ErrorBitstream, Sub: BitstreamInvalPkt, Packet: 0x41000102},
		true,
	}, {
		"expecting_sob",
		0x0401000040000000,
		PacketError{Kind: ErrorBitstream, Sub: BitstreamExpectingSOB, Packet: 0x40000000},
		true,
	}, {
		"prog_resp",
		0x05000000deadbeef,
		PacketError{Kind: ErrorProgResp, Packet: 0xdeadbeef},
		true,
	}, {
		"ureg_rd",
		0x0600000a00000123,
		URegError{Kind: ErrorURegRd, Addr: 0x123, Resp: 2, ReqTimeout: true},
		true,
	}, {
		"ureg_wr",
		0x0700000700000fff,
		URegError{Kind: ErrorURegWr, Addr: 0xfff, Resp: 3, RespTimeout: true},
		true,
	}} {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			got, err := DecodeError(tt.word)
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tt.want, got)
			word, err := EncodeError(got)
			if assert.NoError(err) && tt.canon {
				assert.Equal(tt.word, word)
			}
		})
	}
}

func TestDecodeErrorUnknown(t *testing.T) {
	for _, tt := range []struct {
		name string
		word uint64
		err  string
	}{
		{"type", 0x0800000000000000, "unknown error type: 0x08"},
		{"top", 0xff00000000000000, "unknown error type: 0xff"},
		{"sub_zero", 0x0400000000000000, "unknown bitstream sub-error type: 0x00"},
		{"sub", 0x0409000000000000, "unknown bitstream sub-error type: 0x09"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			got, err := DecodeError(tt.word)
			assert.Nil(got)
			assert.EqualError(err, tt.err)
		})
	}
}

func TestEncodeErrorInvalid(t *testing.T) {
	for _, tt := range []struct {
		name string
		in   DeviceError
		err  string
	}{
		{"addr_kind", AddrError{Kind: ErrorBitstream}, "unknown address error type: 0x04"},
		{"addr_wide", AddrError{Kind: ErrorInvalRd, Addr: 0x1000}, "address (4096) can not be represented with 12 bits"},
		{"tile_sub", TileCountError{Sub: BitstreamErrPkt}, "unknown bitstream sub-error type: 0x06"},
		{"packet_sub", PacketError{Kind: ErrorBitstream, Sub: BitstreamErrorTiles}, "unknown packet error type: 0x408"},
		{"resp", URegError{Kind: ErrorURegWr, Resp: 4}, "response (4) can not be represented with 2 bits"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeError(tt.in)
			assert.EqualError(t, err, tt.err)
		})
	}
}

func TestControllerNames(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("BITSTREAM_FIFO", CtrlBitstreamFIFO.String())
	assert.Equal("UERR_FIFO", CtrlUErrFIFO.String())
	assert.Equal(uint16(0xf4c), CtrlURegTimeout.Absolute())
	assert.Equal("PROG_ERR", StateProgErr.String())
	assert.Equal("UREG_WR", ErrorURegWr.String())
	assert.Equal("INCOMPLETE_TILES", BitstreamIncompleteTile.String())

	s, err := ParseState(3)
	assert.NoError(err)
	assert.Equal(StateAppReady, s)
	_, err = ParseState(4)
	assert.EqualError(err, "unknown controller state: 0x04")
}
