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

package fasm

import (
	"bufio"
	"io"
	"strings"
)

// A Decoder reads features from a line-oriented input.
type Decoder struct {
	s    *bufio.Scanner
	line int
}

// NewDecoder returns a Decoder with r as its input.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Decoder{s: s}
}

// Line returns the number of the last line read.
func (d *Decoder) Line() int {
	return d.line
}

// Decode decodes the next feature from the input, skipping blank lines and
// comments.
// It returns io.EOF once the input is exhausted.
func (d *Decoder) Decode(f *Feature) error {
	for d.s.Scan() {
		d.line++
		text := strings.TrimSpace(d.s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parsed, err := parseFeature(text)
		if err != nil {
			return &SyntaxError{Line: d.line, Text: text, Err: err}
		}
		*f = parsed
		return nil
	}
	if err := d.s.Err(); err != nil {
		return err
	}
	return io.EOF
}
