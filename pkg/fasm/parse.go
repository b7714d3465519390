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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseFeature parses a single feature line.
// Errors are *SyntaxError values with Line left at zero.
func ParseFeature(line string) (Feature, error) {
	f, err := parseFeature(strings.TrimSpace(line))
	if err != nil {
		return Feature{}, &SyntaxError{Text: line, Err: err}
	}
	return f, nil
}

func parseFeature(line string) (f Feature, err error) {
	segments := strings.Split(line, ".")
	last := len(segments) - 1
	if segments[last] == "ignored" {
		return Feature{Spec: Ignored{}}, nil
	}
	for _, sgmt := range segments[:last] {
		if len(sgmt) < 2 {
			return f, fmt.Errorf("%w: segment %q", ErrSyntax, sgmt)
		}
		n, err := strconv.Atoi(sgmt[1:])
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: segment %q", ErrSyntax, sgmt)
		}
		var sum *int
		switch sgmt[0] {
		case 'x':
			sum = &f.X
		case 'y':
			sum = &f.Y
		case 'b':
			sum = &f.Base
		default:
			return f, fmt.Errorf("%w: segment %q", ErrSyntax, sgmt)
		}
		if n > math.MaxInt-*sum {
			return f, fmt.Errorf("%w: segment %q overflows", ErrSyntax, sgmt)
		}
		*sum += n
	}
	f.Spec, err = parseBitSpec(segments[last])
	return f, err
}

// ParseBitSpec parses the final segment of a feature line.
func ParseBitSpec(s string) (BitSpec, error) {
	return parseBitSpec(s)
}

func parseBitSpec(s string) (BitSpec, error) {
	if s == "ignored" {
		return Ignored{}, nil
	}

	p := scanner{input: s}
	if !p.accept('b') {
		return nil, p.fail("expected 'b'")
	}
	offset, ok := p.integer()
	if !ok {
		return nil, p.fail("expected bit offset")
	}
	if p.done() {
		return Bit{Offset: offset}, nil
	}

	r := Range{Offset: offset}
	if !p.accept('[') {
		return nil, p.fail("expected '['")
	}
	if r.High, ok = p.integer(); !ok {
		return nil, p.fail("expected high index")
	}
	if !p.accept(':') {
		return nil, p.fail("expected ':'")
	}
	if r.Low, ok = p.integer(); !ok {
		return nil, p.fail("expected low index")
	}
	if !p.accept(']') || !p.accept('=') {
		return nil, p.fail("expected ']='")
	}
	if r.Width, ok = p.integer(); !ok {
		return nil, p.fail("expected width")
	}
	if !p.accept('\'') || !p.accept('b') {
		return nil, p.fail("expected \"'b\"")
	}
	literal := p.binary()
	if len(literal) == 0 || !p.done() {
		return nil, p.fail("expected binary literal")
	}

	if r.High < r.Low {
		return nil, ErrRange
	} else if r.Width != len(literal) {
		return nil, ErrWidth
	}

	// The literal is written most significant bit first.
	r.Value = make([]bool, len(literal))
	for i, c := range literal {
		r.Value[len(literal)-1-i] = c == '1'
	}
	return r, nil
}

type scanner struct {
	input string
	pos   int
}

func (p *scanner) done() bool {
	return p.pos == len(p.input)
}

func (p *scanner) accept(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *scanner) span(ok func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.input) && ok(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *scanner) integer() (int, bool) {
	digits := p.span(func(c byte) bool { return '0' <= c && c <= '9' })
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}

func (p *scanner) binary() string {
	return p.span(func(c byte) bool { return c == '0' || c == '1' })
}

func (p *scanner) fail(what string) error {
	return fmt.Errorf("%w: %s at offset %d of %q", ErrSyntax, what, p.pos, p.input)
}
