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
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sfiera/bitgen/pkg/pktchain"
)

type tap struct {
	log *zap.Logger
}

func Logger(log *zap.Logger) *tap {
	return &tap{log}
}

// Start logs every marshaled packet sent to it. The done channel closes
// once send is closed and drained, or ctx is canceled.
func (t tap) Start(ctx context.Context) (
	send chan<- []byte,
	done <-chan struct{},
) {
	sendCh := make(chan []byte)
	doneCh := make(chan struct{})
	go t.transmit(ctx, sendCh, doneCh)
	return sendCh, doneCh
}

func (t tap) transmit(ctx context.Context, sendCh <-chan []byte, doneCh chan<- struct{}) {
	defer close(doneCh)
	for {
		select {
		case data, ok := <-sendCh:
			if !ok {
				return
			}
			t.logMarshaled(data)
		case <-ctx.Done():
			return
		}
	}
}

func (t tap) logMarshaled(data []byte) {
	pak := pktchain.Packet{}
	err := pktchain.Unmarshal(data, &pak)
	if err != nil {
		t.log.With(zap.Error(err)).Error("unmarshal failed")
		return
	}
	t.Packet(pak)
}

// Packet logs one packet.
func (t tap) Packet(pak pktchain.Packet) {
	log := t.log.With(
		zap.String("type", pak.Type.String()),
		zap.Uint8("x", pak.X),
		zap.Uint8("y", pak.Y),
		zap.Uint8("frames", pak.Payload),
	)
	if len(pak.Frames) == 0 {
		log.Info("packet")
		return
	}
	log.With(zap.String("data", hex(pak.Frames))).Info("packet")
}

// ErrorWord decodes and logs a word popped from ERR_FIFO or UERR_FIFO.
func (t tap) ErrorWord(word uint64) {
	log := t.log.With(zap.String("word", fmt.Sprintf("%016x", word)))
	e, err := pktchain.DecodeError(word)
	if err != nil {
		log.With(zap.Error(err)).Error("decode failed")
		return
	}
	log = log.With(zap.String("kind", e.Type().String()))

	switch e := e.(type) {
	case pktchain.NoError:
		log.Info("no error")
	case pktchain.AddrError:
		log.With(zap.String("addr", fmt.Sprintf("%03x", e.Addr))).Warn("device error")
	case pktchain.TileCountError:
		log.With(
			zap.String("sub", e.Sub.String()),
			zap.Uint16("tiles", e.Tiles),
		).Warn("device error")
	case pktchain.PacketError:
		if e.Kind == pktchain.ErrorBitstream {
			log = log.With(zap.String("sub", e.Sub.String()))
		}
		h, err := pktchain.DecodeHeader(e.Packet)
		if err != nil {
			log.With(zap.String("packet", fmt.Sprintf("%08x", e.Packet))).Warn("device error")
			return
		}
		log.With(
			zap.String("packet", h.Type.String()),
			zap.String("tile", fmt.Sprintf("(%d, %d)", h.X, h.Y)),
			zap.Uint8("frames", h.Payload),
		).Warn("device error")
	case pktchain.URegError:
		log.With(
			zap.String("addr", fmt.Sprintf("%03x", e.Addr)),
			zap.Uint8("resp", e.Resp),
			zap.Bool("resp_timeout", e.RespTimeout),
			zap.Bool("req_timeout", e.ReqTimeout),
		).Warn("device error")
	}
}

func hex(frames []uint32) string {
	buf := bytes.Buffer{}
	for i, f := range frames {
		if i > 0 {
			fmt.Fprint(&buf, " ")
		}
		fmt.Fprintf(&buf, "%08x", f)
	}
	return string(buf.Bytes())
}
