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
)

// UnknownCodeError reports a raw protocol code with no known meaning.
// It indicates a version mismatch between producer and consumer.
type UnknownCodeError struct {
	What string // "message type", "error type", "bitstream sub-error type"
	Raw  uint64
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %s: 0x%02x", e.What, e.Raw)
}

// FieldOverflowError reports a value that does not fit its header field.
type FieldOverflowError struct {
	Field string
	Value int
	Bits  int
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("%s (%d) can not be represented with %d bits", e.Field, e.Value, e.Bits)
}

// ConfigWidthError reports a configuration width that can not split a
// tile into equal lanes.
type ConfigWidthError struct {
	Width   int
	TileLen int
}

func (e *ConfigWidthError) Error() string {
	return fmt.Sprintf("unsupported config width %d for tile of %d bits", e.Width, e.TileLen)
}

// PacketSizeError reports a maximum packet payload outside 1..255 frames.
type PacketSizeError struct {
	Frames int
}

func (e *PacketSizeError) Error() string {
	return fmt.Sprintf("unsupported maximum packet payload size: %d", e.Frames)
}

// ChecksumError reports a lane whose sandwich checksum does not verify.
type ChecksumError struct {
	Lane      int
	Want, Got uint8
	Where     string // "prefix", "suffix" or "padding"
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("lane %d: %s checksum mismatch: expected 0x%02x, got 0x%02x", e.Lane, e.Where, e.Want, e.Got)
}

// SequenceError reports a packet that arrives out of order for its tile.
type SequenceError struct {
	X, Y uint8
	Type MsgType
	Msg  string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s packet to (%d, %d): %s", e.Type, e.X, e.Y, e.Msg)
}
