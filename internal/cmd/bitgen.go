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

// bitgen binary implementation
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sfiera/bitgen/internal/bitgen"
	"github.com/sfiera/bitgen/internal/dbg"
	"github.com/sfiera/bitgen/pkg/memh"
	"github.com/sfiera/bitgen/pkg/pktchain"
	"github.com/sfiera/bitgen/pkg/summary"
)

const (
	versionString = "bitgen 0.1"
	usage         = "usage: bitgen -s SUMMARY [-o MEMH] FASM"
)

var (
	summaryPath = pflag.StringP("summary", "s", "", "architecture summary (.yaml, .yml or .cbor)")
	output      = pflag.StringP("output", "o", "-", "generated bitstream in MEMH format")
	maxFrames   = pflag.IntP("max-frames-per-packet", "M", pktchain.DefaultPacketFrames, "maximum number of 32b frames per packet")
	scan        = pflag.Bool("scanchain", false, "generate a scanchain bitstream instead")
	jobs        = pflag.IntP("jobs", "j", runtime.NumCPU(), "tiles checksummed concurrently")
	debug       = pflag.BoolP("debug", "d", false, "log packets")
	dump        = pflag.String("dump", "", "decode, log and verify a MEMH bitstream")
	decodeErr   = pflag.StringArray("decode-error", []string{}, "decode a controller error word")
	quiet       = pflag.BoolP("quiet", "q", false, "log nothing")
	version     = pflag.BoolP("version", "v", false, "Display version & exit")
)

func init() {
	// --max_frames_per_packet is accepted as well as --max-frames-per-packet.
	pflag.CommandLine.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func Main() {
	if *version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	log := zap.NewNop()
	if !*quiet {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			fmt.Println(err.Error())
			os.Exit(1)
		}
	}
	defer log.Sync()

	err := run(log, pflag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(log *zap.Logger, args []string) error {
	tap := dbg.Logger(log)
	for _, text := range *decodeErr {
		word, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(text), "0x"), 16, 64)
		if err != nil {
			return fmt.Errorf("invalid error word %q", text)
		}
		tap.ErrorWord(word)
	}

	var s *summary.Summary
	if *summaryPath != "" {
		var err error
		s, err = summary.Load(*summaryPath)
		if err != nil {
			return err
		}
		log.With(
			zap.Int("cfg_width", s.CfgWidth),
			zap.Int("width", s.Width()),
			zap.Int("height", s.Height()),
		).Info("summary parsed")
	}

	if *dump != "" {
		return dumpImage(log, *dump, s)
	} else if len(args) == 0 && len(*decodeErr) > 0 {
		return nil
	} else if len(args) != 1 {
		return errors.New(usage)
	} else if s == nil {
		return fmt.Errorf("no summary specified")
	}

	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	// Output is held back until generation succeeds.
	buf := bytes.Buffer{}
	if *scan {
		log.With(zap.Int("bitstream_size", s.BitstreamSize)).Info("scanchain")
		err = bitgen.Scanchain(s.BitstreamSize, in, &buf, bitgen.WithLogger(log))
	} else {
		opts := []bitgen.Option{
			bitgen.WithLogger(log),
			bitgen.WithMaxPacketFrames(*maxFrames),
			bitgen.WithWorkers(*jobs),
		}
		var send chan<- []byte
		var done <-chan struct{}
		if *debug {
			send, done = tap.Start(context.Background())
			opts = append(opts, bitgen.WithPacketHook(func(pak pktchain.Packet) {
				data, err := pktchain.Marshal(pak)
				if err != nil {
					tap.Packet(pak)
					return
				}
				send <- data
			}))
		}
		_, err = bitgen.Pktchain(s, in, &buf, opts...)
		if send != nil {
			close(send)
			<-done
		}
	}
	if err != nil {
		return err
	}
	return writeOutput(*output, buf.Bytes())
}

// dumpImage logs every packet of a memory image and checks that it programs
// every tile completely. With a summary, each tile's checksums are verified.
func dumpImage(log *zap.Logger, path string, s *summary.Summary) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	tap := dbg.Logger(log)
	d := memh.NewDecoder(in)
	a := pktchain.NewAssembler()
	for {
		pak := pktchain.Packet{}
		err := d.Decode(&pak)
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		tap.Packet(pak)
		if err := a.Add(pak); err != nil {
			return fmt.Errorf("%s: line %d: %w", path, d.Line(), err)
		}
	}

	if incomplete := a.Incomplete(); len(incomplete) > 0 {
		for _, c := range incomplete {
			log.With(zap.Uint8("x", c.X), zap.Uint8("y", c.Y)).Warn("incomplete tile")
		}
		return fmt.Errorf("%s: %d incomplete tiles", path, len(incomplete))
	}

	complete := a.Complete()
	if s != nil {
		for x, col := range s.Chains {
			for y, n := range col {
				framed, ok := a.Tile(uint8(x), uint8(y))
				if !ok {
					return fmt.Errorf("%s: tile (%d, %d) not programmed", path, x, y)
				}
				if err := pktchain.VerifyTile(framed, n, s.CfgWidth); err != nil {
					return fmt.Errorf("%s: tile (%d, %d): %w", path, x, y, err)
				}
			}
		}
	}
	log.With(zap.Int("tiles", len(complete)), zap.Bool("verified", s != nil)).Info("bitstream decoded")
	return nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error {
	return r.close()
}

// openInput opens path for reading, decompressing .zst files. "-" is stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return readCloser{dec, func() error {
		dec.Close()
		return f.Close()
	}}, nil
}

// writeOutput writes data to path, compressing .zst files. "-" is stdout.
func writeOutput(path string, data []byte) error {
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := io.Writer(f)
	var enc *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return err
		}
		w = enc
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return f.Close()
}
