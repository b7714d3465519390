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

package scanchain

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sfiera/bitgen/pkg/bitvec"
	"github.com/sfiera/bitgen/pkg/fasm"
)

func TestNewRoundsUp(t *testing.T) {
	for _, tt := range []struct {
		size, want int
	}{
		{0, 0},
		{1, 64},
		{64, 64},
		{65, 128},
		{1000, 1024},
	} {
		assert.Equal(t, tt.want, New(tt.size).Len(), "size %d", tt.size)
	}
}

func TestApply(t *testing.T) {
	assert := assert.New(t)
	b := New(70)
	for _, line := range []string{
		"x1.y2.b3.b4",
		"b60[7:0]=8'b10000001",
		"x0.y0.ignored",
	} {
		f, err := fasm.ParseFeature(line)
		if assert.NoError(err, line) {
			assert.NoError(b.Apply(f), line)
		}
	}

	buf := bytes.Buffer{}
	n, err := b.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(34), n)
	assert.Equal("1000000000000400\n0000000000000008\n", buf.String())
}

func TestApplyOutOfRange(t *testing.T) {
	assert := assert.New(t)
	b := New(64)
	for _, line := range []string{
		"b62[3:0]=4'b1111",
		"x9223372036854775807.y9223372036854775807.b2",
	} {
		f, err := fasm.ParseFeature(line)
		if !assert.NoError(err, line) {
			continue
		}
		var rerr *bitvec.RangeError
		assert.True(errors.As(b.Apply(f), &rerr), line)
	}
	assert.Equal(0, b.Bits().OnesCount())
}
