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
	"sort"

	"github.com/sfiera/bitgen/pkg/bitvec"
)

// Coord identifies a tile in packet headers.
type Coord struct {
	X, Y uint8
}

// An Assembler rebuilds checksummed tiles from a packet stream, the way the
// fabric's packet routers consume it.
type Assembler struct {
	open map[Coord][]uint32
	done map[Coord]*bitvec.Vector
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		open: map[Coord][]uint32{},
		done: map[Coord]*bitvec.Vector{},
	}
}

// Add consumes the next packet. Control packets are accepted and ignored.
func (a *Assembler) Add(pak Packet) error {
	switch pak.Type {
	case MsgSOB, MsgEOB, MsgTest:
		return nil
	}
	if !pak.Type.IsData() {
		return &SequenceError{X: pak.X, Y: pak.Y, Type: pak.Type, Msg: "not a programming packet"}
	} else if len(pak.Frames) != int(pak.Payload) {
		return &SequenceError{X: pak.X, Y: pak.Y, Type: pak.Type, Msg: "payload size mismatch"}
	}

	c := Coord{pak.X, pak.Y}
	frames, open := a.open[c]
	if pak.Type.IsInit() {
		if open {
			return &SequenceError{X: pak.X, Y: pak.Y, Type: pak.Type, Msg: "tile already open"}
		} else if _, ok := a.done[c]; ok {
			return &SequenceError{X: pak.X, Y: pak.Y, Type: pak.Type, Msg: "tile already complete"}
		}
	} else if !open {
		return &SequenceError{X: pak.X, Y: pak.Y, Type: pak.Type, Msg: "tile not open"}
	}

	frames = append(frames, pak.Frames...)
	if !pak.Type.IsChecksum() {
		a.open[c] = frames
		return nil
	}

	// Frames arrive from the top of the tile down.
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	a.done[c] = bitvec.FromWords32(frames)
	delete(a.open, c)
	return nil
}

// Tile returns the checksummed tile at (x, y) once it is complete.
func (a *Assembler) Tile(x, y uint8) (*bitvec.Vector, bool) {
	v, ok := a.done[Coord{x, y}]
	return v, ok
}

// Complete returns the coordinates of complete tiles, sorted by x then y.
func (a *Assembler) Complete() []Coord {
	cs := []Coord{}
	for c := range a.done {
		cs = append(cs, c)
	}
	sortCoords(cs)
	return cs
}

// Incomplete returns the coordinates of tiles that were opened but never
// received a checksum packet, sorted by x then y.
func (a *Assembler) Incomplete() []Coord {
	cs := []Coord{}
	for c := range a.open {
		cs = append(cs, c)
	}
	sortCoords(cs)
	return cs
}

func sortCoords(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].X != cs[j].X {
			return cs[i].X < cs[j].X
		}
		return cs[i].Y < cs[j].Y
	})
}
