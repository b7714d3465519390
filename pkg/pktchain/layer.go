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
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// LayerTypePktchain decodes a run of back-to-back packets, one layer each.
var LayerTypePktchain gopacket.LayerType

func init() {
	LayerTypePktchain = gopacket.RegisterLayerType(2031, gopacket.LayerTypeMetadata{
		Name:    "Pktchain",
		Decoder: gopacket.DecodeFunc(decodePktchain),
	})
}

// Layer is a packet as seen by gopacket. Its payload is whatever follows the
// packet's last frame.
type Layer struct {
	layers.BaseLayer
	Packet Packet
}

func (l *Layer) LayerType() gopacket.LayerType {
	return LayerTypePktchain
}

func (l *Layer) CanDecode() gopacket.LayerClass {
	return LayerTypePktchain
}

func (l *Layer) NextLayerType() gopacket.LayerType {
	if len(l.Payload) == 0 {
		return gopacket.LayerTypeZero
	}
	return LayerTypePktchain
}

func (l *Layer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < headerSize {
		df.SetTruncated()
		return fmt.Errorf("pktchain packet of %d bytes too short for header", len(data))
	}
	h, err := DecodeHeader(binary.BigEndian.Uint32(data))
	if err != nil {
		return err
	}
	size := headerSize + 4*int(h.Payload)
	if len(data) < size {
		df.SetTruncated()
		return fmt.Errorf("pktchain packet of %d bytes truncated (%d expected)", len(data), size)
	}

	l.Packet = Packet{Header: h, Frames: make([]uint32, h.Payload)}
	for i := range l.Packet.Frames {
		l.Packet.Frames[i] = binary.BigEndian.Uint32(data[headerSize+4*i:])
	}
	l.BaseLayer = layers.BaseLayer{Contents: data[:size], Payload: data[size:]}
	return nil
}

func (l *Layer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	pak := l.Packet
	if opts.FixLengths {
		pak.Payload = uint8(len(pak.Frames))
	}
	data, err := Marshal(pak)
	if err != nil {
		return err
	}
	bytes, err := b.PrependBytes(len(data))
	if err != nil {
		return err
	}
	copy(bytes, data)
	return nil
}

func decodePktchain(data []byte, p gopacket.PacketBuilder) error {
	l := &Layer{}
	if err := l.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(l)
	if len(l.Payload) == 0 {
		return nil
	}
	return p.NextDecoder(LayerTypePktchain)
}

// DecodeStream splits back-to-back marshaled packets.
func DecodeStream(data []byte) ([]Packet, error) {
	packet := gopacket.NewPacket(data, LayerTypePktchain, gopacket.Default)
	paks := []Packet{}
	for _, l := range packet.Layers() {
		if l, ok := l.(*Layer); ok {
			paks = append(paks, l.Packet)
		}
	}
	if err := packet.ErrorLayer(); err != nil {
		return paks, err.Error()
	}
	return paks, nil
}
