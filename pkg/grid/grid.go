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

// Package grid holds the per-tile configuration vectors of a fabric while
// feature assignments are applied to them.
package grid

import (
	"fmt"

	"github.com/sfiera/bitgen/pkg/bitvec"
	"github.com/sfiera/bitgen/pkg/fasm"
)

// TileError reports a feature addressed to a tile outside the grid.
type TileError struct {
	X, Y          int
	Width, Height int
}

func (e *TileError) Error() string {
	return fmt.Sprintf("tile (%d, %d) outside %dx%d grid", e.X, e.Y, e.Width, e.Height)
}

// A Grid is a two-dimensional array of tile vectors indexed by x, then y.
type Grid struct {
	tiles [][]*bitvec.Vector
}

// New returns a grid of zero-filled tiles, where counts[x][y] is the number
// of configuration bits of tile (x, y).
func New(counts [][]int) *Grid {
	g := &Grid{tiles: make([][]*bitvec.Vector, len(counts))}
	for x, col := range counts {
		g.tiles[x] = make([]*bitvec.Vector, len(col))
		for y, n := range col {
			g.tiles[x][y] = bitvec.New(n)
		}
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int {
	return len(g.tiles)
}

// Height returns the number of rows.
func (g *Grid) Height() int {
	if len(g.tiles) == 0 {
		return 0
	}
	return len(g.tiles[0])
}

// Tile returns the vector of tile (x, y), or nil if there is none.
func (g *Grid) Tile(x, y int) *bitvec.Vector {
	if x < 0 || x >= len(g.tiles) || y < 0 || y >= len(g.tiles[x]) {
		return nil
	}
	return g.tiles[x][y]
}

// Tiles returns the tile vectors, indexed by x, then y.
func (g *Grid) Tiles() [][]*bitvec.Vector {
	return g.tiles
}

// Apply writes a feature into its tile.
func (g *Grid) Apply(f fasm.Feature) error {
	if _, ok := f.Spec.(fasm.Ignored); ok {
		return nil
	}
	tile := g.Tile(f.X, f.Y)
	if tile == nil {
		return &TileError{X: f.X, Y: f.Y, Width: g.Width(), Height: g.Height()}
	}
	if err := f.Write(tile, f.Base); err != nil {
		return fmt.Errorf("tile (%d, %d): %w", f.X, f.Y, err)
	}
	return nil
}
