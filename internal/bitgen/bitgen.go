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

// Package bitgen turns feature assignments into configuration bitstreams.
package bitgen

import (
	"fmt"
	"io"
	"sync"

	"github.com/getrak/crc16"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sfiera/bitgen/pkg/bitvec"
	"github.com/sfiera/bitgen/pkg/fasm"
	"github.com/sfiera/bitgen/pkg/grid"
	"github.com/sfiera/bitgen/pkg/memh"
	"github.com/sfiera/bitgen/pkg/pktchain"
	"github.com/sfiera/bitgen/pkg/scanchain"
	"github.com/sfiera/bitgen/pkg/summary"
)

// idTable computes bitstream IDs: CRC-16/XMODEM over the marshaled packets,
// in the order they are written to BITSTREAM_FIFO.
var idTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Result summarizes a generated pktchain bitstream.
type Result struct {
	Tiles       int
	Packets     int
	Frames      int // including headers
	BitstreamID uint16
}

// Pktchain reads feature assignments from r and writes the packetized
// bitstream for the fabric described by s to w as a memory image.
//
// Configuration and input errors are reported before anything is written.
func Pktchain(s *summary.Summary, r io.Reader, w io.Writer, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.Logger

	if err := pktchain.CheckPacketFrames(cfg.MaxPacketFrames); err != nil {
		return nil, err
	} else if err := s.Validate(); err != nil {
		return nil, err
	} else if err := checkWidths(s); err != nil {
		return nil, err
	}

	g := grid.New(s.Chains)
	n, err := parse(r, g.Apply)
	if err != nil {
		return nil, err
	}
	log.With(zap.String("stage", "parse"), zap.Int("features", n)).Info("features applied")

	tiles, err := frame(g.Tiles(), s.CfgWidth, cfg.Workers)
	if err != nil {
		return nil, err
	}
	log.With(
		zap.String("stage", "frame"),
		zap.Int("tiles", g.Width()*g.Height()),
		zap.Int("cfg_width", s.CfgWidth),
	).Info("tiles checksummed")

	res := &Result{Tiles: g.Width() * g.Height()}
	enc := memh.NewEncoder(w)
	id := crc16.Init(idTable)
	err = pktchain.Paginate(tiles, cfg.MaxPacketFrames, func(pak pktchain.Packet) error {
		data, err := pktchain.Marshal(pak)
		if err != nil {
			return err
		}
		if err := enc.Encode(pak); err != nil {
			return err
		}
		id = crc16.Update(id, data, idTable)
		res.Packets++
		res.Frames += 1 + len(pak.Frames)
		if cfg.PacketHook != nil {
			cfg.PacketHook(pak)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	res.BitstreamID = crc16.Complete(id, idTable)

	log.With(
		zap.String("stage", "paginate"),
		zap.Int("packets", res.Packets),
		zap.Int("frames", res.Frames),
		zap.String("id", fmt.Sprintf("%04x", res.BitstreamID)),
	).Info("bitstream generated")
	return res, nil
}

// Scanchain reads feature assignments from r and writes a scanchain
// bitstream of at least size bits to w.
func Scanchain(size int, r io.Reader, w io.Writer, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.Logger

	if size < 0 {
		return fmt.Errorf("invalid bitstream size: %d", size)
	}
	b := scanchain.New(size)
	n, err := parse(r, b.Apply)
	if err != nil {
		return err
	}
	log.With(zap.String("stage", "parse"), zap.Int("features", n)).Info("features applied")

	if _, err := b.WriteTo(w); err != nil {
		return err
	}
	log.With(zap.Int("size", b.Len())).Info("bitstream generated")
	return nil
}

func checkWidths(s *summary.Summary) error {
	var err error
	for x, col := range s.Chains {
		for y, n := range col {
			if s.CfgWidth <= 0 || n%s.CfgWidth != 0 {
				err = multierr.Append(err, fmt.Errorf("tile (%d, %d): %w", x, y,
					&pktchain.ConfigWidthError{Width: s.CfgWidth, TileLen: n}))
			}
		}
	}
	return err
}

func parse(r io.Reader, apply func(fasm.Feature) error) (int, error) {
	dec := fasm.NewDecoder(r)
	n := 0
	for {
		f := fasm.Feature{}
		err := dec.Decode(&f)
		if err == io.EOF {
			return n, nil
		} else if err != nil {
			return n, err
		}
		if err := apply(f); err != nil {
			return n, fmt.Errorf("line %d: %w", dec.Line(), err)
		}
		n++
	}
}

type coord struct {
	x, y int
}

// frame checksums every tile on a pool of workers. Results land in the slot
// of their tile, so the output does not depend on scheduling.
func frame(tiles [][]*bitvec.Vector, w, workers int) ([][]*bitvec.Vector, error) {
	if workers < 1 {
		workers = 1
	}
	framed := make([][]*bitvec.Vector, len(tiles))
	errs := make([][]error, len(tiles))
	for x, col := range tiles {
		framed[x] = make([]*bitvec.Vector, len(col))
		errs[x] = make([]error, len(col))
	}

	jobs := make(chan coord)
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				framed[c.x][c.y], errs[c.x][c.y] = pktchain.FrameTile(tiles[c.x][c.y], w)
			}
		}()
	}
	for x, col := range tiles {
		for y := range col {
			jobs <- coord{x, y}
		}
	}
	close(jobs)
	wg.Wait()

	var err error
	for x, col := range errs {
		for y, e := range col {
			if e != nil {
				err = multierr.Append(err, fmt.Errorf("tile (%d, %d): %w", x, y, e))
			}
		}
	}
	return framed, err
}
