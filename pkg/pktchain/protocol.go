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

// Package pktchain implements the packet-switched configuration protocol:
// message headers, the checksummed tile framing, pagination of tiles into
// packets, and the error words reported by the programming controller.
package pktchain

import (
	"fmt"
)

// MsgType is the message type carried in the top byte of a packet header.
type MsgType uint8

const (
	// control packets
	MsgSOB  = MsgType(0x01) // start of bitstream
	MsgEOB  = MsgType(0x02) // end of bitstream
	MsgTest = MsgType(0x20)

	// programming packets
	MsgData             = MsgType(0x40)
	MsgDataInit         = MsgType(0x41)
	MsgDataChecksum     = MsgType(0x42)
	MsgDataInitChecksum = MsgType(0x43)

	// responses
	MsgDataAck               = MsgType(0x80)
	MsgErrorUnknownMsgType   = MsgType(0x81)
	MsgErrorEchoMismatch     = MsgType(0x82)
	MsgErrorChecksumMismatch = MsgType(0x83)
	MsgErrorFeedthruPacket   = MsgType(0x84)
)

// String returns the protocol name of t.
func (t MsgType) String() string {
	switch t {
	case MsgSOB:
		return "SOB"
	case MsgEOB:
		return "EOB"
	case MsgTest:
		return "TEST"
	case MsgData:
		return "DATA"
	case MsgDataInit:
		return "DATA_INIT"
	case MsgDataChecksum:
		return "DATA_CHECKSUM"
	case MsgDataInitChecksum:
		return "DATA_INIT_CHECKSUM"
	case MsgDataAck:
		return "DATA_ACK"
	case MsgErrorUnknownMsgType:
		return "ERROR_UNKNOWN_MSG_TYPE"
	case MsgErrorEchoMismatch:
		return "ERROR_ECHO_MISMATCH"
	case MsgErrorChecksumMismatch:
		return "ERROR_CHECKSUM_MISMATCH"
	case MsgErrorFeedthruPacket:
		return "ERROR_FEEDTHRU_PACKET"
	default:
		return fmt.Sprintf("MsgType(0x%02x)", uint8(t))
	}
}

// Valid reports whether t is a known message type.
func (t MsgType) Valid() bool {
	switch t {
	case MsgSOB, MsgEOB, MsgTest,
		MsgData, MsgDataInit, MsgDataChecksum, MsgDataInitChecksum,
		MsgDataAck, MsgErrorUnknownMsgType, MsgErrorEchoMismatch,
		MsgErrorChecksumMismatch, MsgErrorFeedthruPacket:
		return true
	default:
		return false
	}
}

// IsData reports whether t carries tile frames.
func (t MsgType) IsData() bool {
	return t&0xfc == MsgData
}

// IsInit reports whether t opens a tile.
func (t MsgType) IsInit() bool {
	return t.IsData() && t&0x01 != 0
}

// IsChecksum reports whether t closes a tile.
func (t MsgType) IsChecksum() bool {
	return t.IsData() && t&0x02 != 0
}

// DataType returns the programming message type for a packet that opens
// and/or closes a tile.
func DataType(init, last bool) MsgType {
	switch {
	case init && last:
		return MsgDataInitChecksum
	case init:
		return MsgDataInit
	case last:
		return MsgDataChecksum
	default:
		return MsgData
	}
}

// ParseMsgType converts a raw header byte to a MsgType.
func ParseMsgType(raw uint8) (MsgType, error) {
	t := MsgType(raw)
	if !t.Valid() {
		return 0, &UnknownCodeError{What: "message type", Raw: uint64(raw)}
	}
	return t, nil
}

// A Header is the first frame of every packet.
//
//	31      24 23      16 15       8 7        0
//	+---------+----------+----------+---------+
//	|  type   |    x     |    y     | payload |
//	+---------+----------+----------+---------+
type Header struct {
	Type    MsgType
	X, Y    uint8
	Payload uint8 // number of frames following the header
}

// EncodeHeader packs a header into a frame.
func EncodeHeader(t MsgType, x, y, payload int) (uint32, error) {
	if !t.Valid() {
		return 0, &UnknownCodeError{What: "message type", Raw: uint64(t)}
	}
	for _, f := range []struct {
		name  string
		value int
	}{{"x position", x}, {"y position", y}, {"payload", payload}} {
		if f.value < 0 || f.value > 0xff {
			return 0, &FieldOverflowError{Field: f.name, Value: f.value, Bits: 8}
		}
	}
	return uint32(t)<<24 | uint32(x)<<16 | uint32(y)<<8 | uint32(payload), nil
}

// DecodeHeader unpacks a header frame.
func DecodeHeader(frame uint32) (Header, error) {
	t, err := ParseMsgType(uint8(frame >> 24))
	if err != nil {
		return Header{}, err
	}
	return Header{
		Type:    t,
		X:       uint8(frame >> 16),
		Y:       uint8(frame >> 8),
		Payload: uint8(frame),
	}, nil
}

// Encode packs h into a frame.
func (h Header) Encode() (uint32, error) {
	return EncodeHeader(h.Type, int(h.X), int(h.Y), int(h.Payload))
}
