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

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func reset() {
	*summaryPath = ""
	*output = "-"
	*maxFrames = 255
	*scan = false
	*debug = false
	*dump = ""
	*decodeErr = []string{}
}

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateAndDump(t *testing.T) {
	for _, name := range []string{"out.memh", "out.memh.zst"} {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			defer reset()
			dir := t.TempDir()
			*summaryPath = writeFile(t, dir, "summary.yaml", "cfg_width: 2\nchains: [[16, 32], [64, 2]]\n")
			fasm := writeFile(t, dir, "design.fasm", "x0.y1.b3\nx1.y0.b8[3:0]=4'b1010\n")
			*output = filepath.Join(dir, name)
			*maxFrames = 2

			if !assert.NoError(run(zap.NewNop(), []string{fasm})) {
				return
			}

			core, logs := observer.New(zapcore.InfoLevel)
			*dump = *output
			assert.NoError(run(zap.New(core), nil))
			assert.Len(logs.FilterMessage("packet").All(), 5)
			decoded := logs.FilterMessage("bitstream decoded").All()
			if assert.Len(decoded, 1) {
				assert.Equal(int64(4), decoded[0].ContextMap()["tiles"])
				assert.Equal(true, decoded[0].ContextMap()["verified"])
			}
		})
	}
}

func TestDebug(t *testing.T) {
	assert := assert.New(t)
	defer reset()
	dir := t.TempDir()
	*summaryPath = writeFile(t, dir, "summary.yaml", "cfg_width: 1\nchains: [[8]]\n")
	fasm := writeFile(t, dir, "design.fasm", "x0.y0.b1\n")
	*output = filepath.Join(dir, "out.memh")
	*debug = true

	core, logs := observer.New(zapcore.InfoLevel)
	assert.NoError(run(zap.New(core), []string{fasm}))
	packets := logs.FilterMessage("packet").All()
	if assert.Len(packets, 1) {
		assert.Equal("DATA_INIT_CHECKSUM", packets[0].ContextMap()["type"])
		assert.Equal(uint8(1), packets[0].ContextMap()["frames"])
	}
}

func TestDumpIncomplete(t *testing.T) {
	assert := assert.New(t)
	defer reset()
	dir := t.TempDir()
	*dump = writeFile(t, dir, "bad.memh", "// DATA_INIT packet to (1, 0), 1 frames\n41010001\n00000000\n\n")

	core, logs := observer.New(zapcore.InfoLevel)
	err := run(zap.New(core), nil)
	assert.EqualError(err, *dump+": 1 incomplete tiles")
	assert.Len(logs.FilterMessage("incomplete tile").All(), 1)
}

func TestNoOutputOnError(t *testing.T) {
	assert := assert.New(t)
	defer reset()
	dir := t.TempDir()
	*summaryPath = writeFile(t, dir, "summary.yml", "cfg_width: 1\nchains: [[8]]\n")
	fasm := writeFile(t, dir, "design.fasm", "x0.y0.b1\nx0.y0.b9\n")
	*output = filepath.Join(dir, "out.memh")

	err := run(zap.NewNop(), []string{fasm})
	assert.EqualError(err, "line 2: tile (0, 0): bit range [9, 9] outside vector of 8 bits")
	_, err = os.Stat(*output)
	assert.True(os.IsNotExist(err))
}

func TestScanchain(t *testing.T) {
	assert := assert.New(t)
	defer reset()
	dir := t.TempDir()
	*summaryPath = writeFile(t, dir, "summary.yaml", "cfg_width: 1\nchains: []\nbitstream_size: 70\n")
	fasm := writeFile(t, dir, "design.fasm", "x1.y1.b1\n")
	*output = filepath.Join(dir, "out.memh")
	*scan = true

	if assert.NoError(run(zap.NewNop(), []string{fasm})) {
		data, err := os.ReadFile(*output)
		assert.NoError(err)
		assert.Equal("0000000000000008\n0000000000000000\n", string(data))
	}
}

func TestDecodeError(t *testing.T) {
	assert := assert.New(t)
	defer reset()
	*decodeErr = []string{"0x0407000000000003", "0"}

	core, logs := observer.New(zapcore.InfoLevel)
	assert.NoError(run(zap.New(core), nil))
	assert.Len(logs.FilterMessage("device error").All(), 1)
	assert.Len(logs.FilterMessage("no error").All(), 1)

	*decodeErr = []string{"xyz"}
	assert.EqualError(run(zap.NewNop(), nil), `invalid error word "xyz"`)
}

func TestUsage(t *testing.T) {
	assert := assert.New(t)
	defer reset()
	assert.EqualError(run(zap.NewNop(), nil), usage)
	assert.EqualError(run(zap.NewNop(), []string{"design.fasm"}), "no summary specified")
	assert.NotNil(pflag.CommandLine.Lookup("max_frames_per_packet"))
}
