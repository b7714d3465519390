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

// Package memh reads and writes pktchain packets as hexadecimal memory
// images, the form loaded by Verilog's $readmemh in simulation.
//
// Each packet is a comment line naming it, the header word, one line per
// frame, and a blank line:
//
//	// DATA_INIT packet to (1, 0), 2 frames
//	41010002
//	deadbeef
//	01020304
package memh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sfiera/bitgen/pkg/pktchain"
)

// An Encoder writes packets to a memory image.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder returns an Encoder with w as its output. Output is buffered
// until Flush is called.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one packet. Nothing is written if the packet is malformed.
func (e *Encoder) Encode(pak pktchain.Packet) error {
	if len(pak.Frames) != int(pak.Payload) {
		return fmt.Errorf("write memh: payload mismatch (%d != %d)", len(pak.Frames), pak.Payload)
	}
	header, err := pak.Encode()
	if err != nil {
		return err
	}

	fmt.Fprintf(e.w, "// %s packet to (%d, %d), %d frames\n", pak.Type, pak.X, pak.Y, pak.Payload)
	fmt.Fprintf(e.w, "%08x\n", header)
	for _, f := range pak.Frames {
		fmt.Fprintf(e.w, "%08x\n", f)
	}
	_, err = e.w.WriteString("\n")
	return err
}

// Flush writes buffered output to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// A Decoder reads packets from a memory image. Comments and blank lines are
// skipped, so images produced by other tools decode as well.
type Decoder struct {
	s    *bufio.Scanner
	line int
}

// NewDecoder returns a Decoder with r as its input.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{s: bufio.NewScanner(r)}
}

// Line returns the number of the last line read.
func (d *Decoder) Line() int {
	return d.line
}

// Decode decodes the next packet from the input. It returns io.EOF if the
// input ends cleanly between packets and io.ErrUnexpectedEOF if it ends
// within one.
func (d *Decoder) Decode(pak *pktchain.Packet) error {
	word, err := d.word()
	if err != nil {
		return err
	}
	h, err := pktchain.DecodeHeader(word)
	if err != nil {
		return fmt.Errorf("line %d: %w", d.line, err)
	}

	frames := make([]uint32, h.Payload)
	for i := range frames {
		frames[i], err = d.word()
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		} else if err != nil {
			return err
		}
	}
	*pak = pktchain.Packet{Header: h, Frames: frames}
	return nil
}

func (d *Decoder) word() (uint32, error) {
	for d.s.Scan() {
		d.line++
		text := strings.TrimSpace(d.s.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		word, err := strconv.ParseUint(text, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid word %q", d.line, text)
		}
		return uint32(word), nil
	}
	if err := d.s.Err(); err != nil {
		return 0, err
	}
	return 0, io.EOF
}
