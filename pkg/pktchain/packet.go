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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const headerSize = 4

// Len returns the size of the marshaled packet in bytes.
func (pak Packet) Len() int {
	return headerSize + 4*len(pak.Frames)
}

// Unmarshals a packet from big-endian frames.
func Unmarshal(data []byte, pak *Packet) error {
	r := bytes.NewReader(data)
	if err := readPacket(r, pak); err != nil {
		return err
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return fmt.Errorf("read pktchain: excess data")
	}
	return nil
}

func readPacket(r io.Reader, pak *Packet) error {
	err := binary.Read(r, binary.BigEndian, &pak.Header)
	if err != nil {
		return fmt.Errorf("read pktchain header: %w", err)
	} else if !pak.Type.Valid() {
		return &UnknownCodeError{What: "message type", Raw: uint64(pak.Type)}
	}

	pak.Frames = make([]uint32, pak.Payload)
	err = binary.Read(r, binary.BigEndian, pak.Frames)
	if err != nil {
		return fmt.Errorf("read pktchain frames: %w", err)
	}
	return nil
}

// Marshals a packet to big-endian frames, as written to BITSTREAM_FIFO.
func Marshal(pak Packet) ([]byte, error) {
	if len(pak.Frames) != int(pak.Payload) {
		return nil, fmt.Errorf("write pktchain: payload mismatch (%d != %d)", len(pak.Frames), pak.Payload)
	} else if !pak.Type.Valid() {
		return nil, &UnknownCodeError{What: "message type", Raw: uint64(pak.Type)}
	}

	w := bytes.NewBuffer(make([]byte, 0, pak.Len()))
	err := binary.Write(w, binary.BigEndian, pak.Header)
	if err != nil {
		return nil, fmt.Errorf("write pktchain header: %w", err)
	}
	err = binary.Write(w, binary.BigEndian, pak.Frames)
	if err != nil {
		return nil, fmt.Errorf("write pktchain frames: %w", err)
	}
	return w.Bytes(), nil
}
