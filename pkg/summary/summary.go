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

// Package summary reads the architecture summary that bitstream generation
// needs: the configuration bus width and the size of every tile's chain.
package summary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// MaxTiles is the largest number of columns or rows a packet header can
// address.
const MaxTiles = 256

// Format selects the serialization of a summary.
type Format int

const (
	YAML Format = iota
	CBOR
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case CBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatOf picks a format from a file name's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".cbor":
		return CBOR, nil
	default:
		return 0, fmt.Errorf("unknown summary format: %q", path)
	}
}

// A Summary describes the configuration circuitry of a fabric.
type Summary struct {
	// CfgWidth is the width of the configuration bus of each tile.
	CfgWidth int `yaml:"cfg_width" cbor:"cfg_width"`
	// Chains[x][y] is the number of configuration bits of tile (x, y).
	Chains [][]int `yaml:"chains" cbor:"chains"`
	// BitstreamSize is the length of the chain of a scanchain fabric.
	BitstreamSize int `yaml:"bitstream_size,omitempty" cbor:"bitstream_size,omitempty"`
}

// Width returns the number of tile columns.
func (s *Summary) Width() int {
	return len(s.Chains)
}

// Height returns the number of tile rows.
func (s *Summary) Height() int {
	if len(s.Chains) == 0 {
		return 0
	}
	return len(s.Chains[0])
}

// Validate checks that the summary describes a rectangular grid whose
// coordinates fit in a packet header.
func (s *Summary) Validate() error {
	if s.CfgWidth < 0 {
		return fmt.Errorf("invalid summary: negative cfg_width %d", s.CfgWidth)
	} else if s.BitstreamSize < 0 {
		return fmt.Errorf("invalid summary: negative bitstream_size %d", s.BitstreamSize)
	} else if s.Width() > MaxTiles {
		return fmt.Errorf("invalid summary: %d columns (at most %d)", s.Width(), MaxTiles)
	} else if s.Height() > MaxTiles {
		return fmt.Errorf("invalid summary: %d rows (at most %d)", s.Height(), MaxTiles)
	}
	for x, col := range s.Chains {
		if len(col) != s.Height() {
			return fmt.Errorf("invalid summary: column %d has %d rows, want %d", x, len(col), s.Height())
		}
		for y, n := range col {
			if n < 0 {
				return fmt.Errorf("invalid summary: tile (%d, %d) has %d bits", x, y, n)
			}
		}
	}
	return nil
}

var cborDecMode = func() cbor.DecMode {
	mode, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// Decode reads and validates a summary.
func Decode(r io.Reader, f Format) (*Summary, error) {
	s := &Summary{}
	switch f {
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil {
			return nil, fmt.Errorf("read summary: %w", err)
		}
	case CBOR:
		if err := cborDecMode.NewDecoder(r).Decode(s); err != nil {
			return nil, fmt.Errorf("read summary: %w", err)
		}
	default:
		return nil, fmt.Errorf("read summary: unknown format %s", f)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode writes s in format f.
func Encode(w io.Writer, s *Summary, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		return enc.Close()
	case CBOR:
		if err := cborEncMode.NewEncoder(w).Encode(s); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("write summary: unknown format %s", f)
	}
}

// Load reads a summary file, choosing the format by extension.
func Load(path string) (*Summary, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file, f)
}
