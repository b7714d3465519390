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

package bitgen

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/sfiera/bitgen/pkg/pktchain"
)

// Config holds the generator configuration.
type Config struct {
	// MaxPacketFrames bounds the number of frames per packet, 1 to 255.
	MaxPacketFrames int

	// Workers is the number of tiles checksummed concurrently.
	Workers int

	// Logger receives progress messages.
	Logger *zap.Logger

	// PacketHook is called with every packet in transmission order (optional)
	PacketHook func(pktchain.Packet)
}

func defaultConfig() Config {
	return Config{
		MaxPacketFrames: pktchain.DefaultPacketFrames,
		Workers:         runtime.NumCPU(),
		Logger:          zap.NewNop(),
	}
}

// Option is a functional option for configuring a generator.
type Option func(*Config)

// WithMaxPacketFrames sets the maximum number of frames per packet.
//
// Example:
//
//	res, err := bitgen.Pktchain(s, fasm, memh, bitgen.WithMaxPacketFrames(16))
func WithMaxPacketFrames(n int) Option {
	return func(c *Config) {
		c.MaxPacketFrames = n
	}
}

// WithWorkers sets the number of tiles checksummed concurrently. Values
// below one mean one.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(log *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithPacketHook sets a function called with every packet as it is written.
func WithPacketHook(hook func(pktchain.Packet)) Option {
	return func(c *Config) {
		c.PacketHook = hook
	}
}
