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

// Logs pktchain packets and controller error words
package dbg

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sfiera/bitgen/pkg/pktchain"
)

func TestCanceled(t *testing.T) {
	assert := assert.New(t)
	core, output := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	_, done := Logger(log).Start(ctx)
	cancel()
	<-done
	assert.Empty(output.AllUntimed())
}

func TestMessages(t *testing.T) {
	for _, c := range []struct {
		name  string
		data  []byte
		entry observer.LoggedEntry
	}{{
		"eof",
		[]byte{},
		msg(zapcore.ErrorLevel, "unmarshal failed",
			zap.Error(fmt.Errorf("read pktchain header: %w", io.EOF)),
		),
	}, {
		"unknown_type",
		[]byte{0x44, 0x00, 0x00, 0x00},
		msg(zapcore.ErrorLevel, "unmarshal failed",
			zap.Error(&pktchain.UnknownCodeError{What: "message type", Raw: 0x44}),
		),
	}, {
		"sob",
		mustMarshal(pktchain.Packet{Header: pktchain.Header{Type: pktchain.MsgSOB}}),
		msg(zapcore.InfoLevel, "packet",
			zap.String("type", "SOB"),
			zap.Uint8("x", 0),
			zap.Uint8("y", 0),
			zap.Uint8("frames", 0),
		),
	}, {
		"data_init",
		mustMarshal(pktchain.Packet{
			Header: pktchain.Header{Type: pktchain.MsgDataInit, X: 3, Y: 1, Payload: 2},
			Frames: []uint32{0xdeadbeef, 0x00000001},
		}),
		msg(zapcore.InfoLevel, "packet",
			zap.String("type", "DATA_INIT"),
			zap.Uint8("x", 3),
			zap.Uint8("y", 1),
			zap.Uint8("frames", 2),
			zap.String("data", "deadbeef 00000001"),
		),
	}} {
		t.Run(c.name, func(t *testing.T) {
			assert := assert.New(t)
			core, output := observer.New(zapcore.InfoLevel)
			log := zap.New(core)

			send, done := Logger(log).Start(context.Background())
			send <- c.data
			close(send)
			<-done
			assert.Equal([]observer.LoggedEntry{c.entry}, output.AllUntimed())
		})
	}
}

func TestErrorWord(t *testing.T) {
	for _, c := range []struct {
		name  string
		word  uint64
		entry observer.LoggedEntry
	}{{
		"none",
		0,
		msg(zapcore.InfoLevel, "no error",
			zap.String("word", "0000000000000000"),
			zap.String("kind", "NONE"),
		),
	}, {
		"unknown",
		0x0900000000000000,
		msg(zapcore.ErrorLevel, "decode failed",
			zap.String("word", "0900000000000000"),
			zap.Error(&pktchain.UnknownCodeError{What: "error type", Raw: 0x09}),
		),
	}, {
		"inval_wr",
		0x0200000000000018,
		msg(zapcore.WarnLevel, "device error",
			zap.String("word", "0200000000000018"),
			zap.String("kind", "INVAL_WR"),
			zap.String("addr", "018"),
		),
	}, {
		"incomplete",
		0x0407000000000003,
		msg(zapcore.WarnLevel, "device error",
			zap.String("word", "0407000000000003"),
			zap.String("kind", "BITSTREAM"),
			zap.String("sub", "INCOMPLETE_TILES"),
			zap.Uint16("tiles", 3),
		),
	}, {
		"err_pkt",
		0x0406000042010205,
		msg(zapcore.WarnLevel, "device error",
			zap.String("word", "0406000042010205"),
			zap.String("kind", "BITSTREAM"),
			zap.String("sub", "ERR_PKT"),
			zap.String("packet", "DATA_CHECKSUM"),
			zap.String("tile", "(1, 2)"),
			zap.Uint8("frames", 5),
		),
	}, {
		"prog_resp_raw",
		0x0500000083000000,
		msg(zapcore.WarnLevel, "device error",
			zap.String("word", "0500000083000000"),
			zap.String("kind", "PROG_RESP"),
			zap.String("packet", "ERROR_CHECKSUM_MISMATCH"),
			zap.String("tile", "(0, 0)"),
			zap.Uint8("frames", 0),
		),
	}, {
		"prog_resp_unknown",
		0x0500000077000000,
		msg(zapcore.WarnLevel, "device error",
			zap.String("word", "0500000077000000"),
			zap.String("kind", "PROG_RESP"),
			zap.String("packet", "77000000"),
		),
	}, {
		"ureg_rd",
		0x0600000400000123,
		msg(zapcore.WarnLevel, "device error",
			zap.String("word", "0600000400000123"),
			zap.String("kind", "UREG_RD"),
			zap.String("addr", "123"),
			zap.Uint8("resp", 0),
			zap.Bool("resp_timeout", true),
			zap.Bool("req_timeout", false),
		),
	}} {
		t.Run(c.name, func(t *testing.T) {
			assert := assert.New(t)
			core, output := observer.New(zapcore.InfoLevel)
			Logger(zap.New(core)).ErrorWord(c.word)
			assert.Equal([]observer.LoggedEntry{c.entry}, output.AllUntimed())
		})
	}
}

func msg(level zapcore.Level, message string, fields ...zapcore.Field) observer.LoggedEntry {
	return observer.LoggedEntry{
		Entry:   zapcore.Entry{Level: level, Message: message},
		Context: fields,
	}
}

func mustMarshal(pak pktchain.Packet) []byte {
	data, err := pktchain.Marshal(pak)
	if err != nil {
		panic(err)
	}
	return data
}
