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
	"fmt"
)

// AXI-Lite programming controller parameters.
const (
	DataWidthLog2  = 6
	AddrWidth      = 12
	CtrlAddrWidth  = 8
	CtrlAddrPrefix = 0xf

	addrMask = uint64(1)<<AddrWidth - 1
)

// CtrlAddr is a register offset of the programming controller.
type CtrlAddr uint16

const (
	CtrlState         = CtrlAddr(0x00) // 8b; writing soft-resets the controller
	CtrlConfig        = CtrlAddr(0x08) // 64b configuration flags
	CtrlErrFIFO       = CtrlAddr(0x10) // 64b; pops one error word, writing clears
	CtrlBitstreamID   = CtrlAddr(0x18) // 64b ID of the current bitstream
	CtrlBitstreamFIFO = CtrlAddr(0x20) // 64b write-only bitstream data
	CtrlUClkDiv       = CtrlAddr(0x40) // 8b; uclk = clk / 2 / (divisor + 1)
	CtrlUDataWidth    = CtrlAddr(0x44) // 2b; 0:64b, 1:32b, 2:16b, 3:8b
	CtrlURst          = CtrlAddr(0x48) // 8b write-only; hold user reset for N cycles
	CtrlURegTimeout   = CtrlAddr(0x4c) // 32b user register timeout, in user cycles
	CtrlUErrFIFO      = CtrlAddr(0x50) // pops one user error word, writing clears
)

func (a CtrlAddr) String() string {
	switch a {
	case CtrlState:
		return "STATE"
	case CtrlConfig:
		return "CONFIG"
	case CtrlErrFIFO:
		return "ERR_FIFO"
	case CtrlBitstreamID:
		return "BITSTREAM_ID"
	case CtrlBitstreamFIFO:
		return "BITSTREAM_FIFO"
	case CtrlUClkDiv:
		return "UCLK_DIV"
	case CtrlUDataWidth:
		return "UDATA_WIDTH"
	case CtrlURst:
		return "URST"
	case CtrlURegTimeout:
		return "UREG_TIMEOUT"
	case CtrlUErrFIFO:
		return "UERR_FIFO"
	default:
		return fmt.Sprintf("CtrlAddr(0x%02x)", uint16(a))
	}
}

// Absolute returns the address of a on the AXI-Lite bus.
func (a CtrlAddr) Absolute() uint16 {
	return CtrlAddrPrefix<<CtrlAddrWidth | uint16(a)
}

// State is the value of the controller's STATE register.
type State uint8

const (
	StateReset       = State(0x00) // write this value to STATE to soft reset
	StateProgramming = State(0x01)
	StateProgErr     = State(0x02)
	StateAppReady    = State(0x03)
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "RESET"
	case StateProgramming:
		return "PROGRAMMING"
	case StateProgErr:
		return "PROG_ERR"
	case StateAppReady:
		return "APP_READY"
	default:
		return fmt.Sprintf("State(0x%02x)", uint8(s))
	}
}

// ParseState converts a raw STATE register value.
func ParseState(raw uint8) (State, error) {
	switch s := State(raw); s {
	case StateReset, StateProgramming, StateProgErr, StateAppReady:
		return s, nil
	default:
		return 0, &UnknownCodeError{What: "controller state", Raw: uint64(raw)}
	}
}

// ErrorType is the top byte of a controller error word.
type ErrorType uint8

const (
	ErrorNone              = ErrorType(0x00) // error FIFO is empty
	ErrorProtocolViolation = ErrorType(0x01)
	ErrorInvalWr           = ErrorType(0x02)
	ErrorInvalRd           = ErrorType(0x03)
	ErrorBitstream         = ErrorType(0x04)
	ErrorProgResp          = ErrorType(0x05)
	ErrorURegRd            = ErrorType(0x06)
	ErrorURegWr            = ErrorType(0x07)
)

func (t ErrorType) String() string {
	switch t {
	case ErrorNone:
		return "NONE"
	case ErrorProtocolViolation:
		return "PROTOCOL_VIOLATION"
	case ErrorInvalWr:
		return "INVAL_WR"
	case ErrorInvalRd:
		return "INVAL_RD"
	case ErrorBitstream:
		return "BITSTREAM"
	case ErrorProgResp:
		return "PROG_RESP"
	case ErrorURegRd:
		return "UREG_RD"
	case ErrorURegWr:
		return "UREG_WR"
	default:
		return fmt.Sprintf("ErrorType(0x%02x)", uint8(t))
	}
}

// BitstreamErrorType is the sub-type of a BITSTREAM error word.
type BitstreamErrorType uint8

const (
	BitstreamExpectingSOB   = BitstreamErrorType(0x01) // waiting for SOB, got something else
	BitstreamUnexpectedSOB  = BitstreamErrorType(0x02)
	BitstreamInvalResp      = BitstreamErrorType(0x03)
	BitstreamErrResp        = BitstreamErrorType(0x04)
	BitstreamInvalPkt       = BitstreamErrorType(0x05)
	BitstreamErrPkt         = BitstreamErrorType(0x06)
	BitstreamIncompleteTile = BitstreamErrorType(0x07)
	BitstreamErrorTiles     = BitstreamErrorType(0x08)
)

func (t BitstreamErrorType) String() string {
	switch t {
	case BitstreamExpectingSOB:
		return "EXPECTING_SOB"
	case BitstreamUnexpectedSOB:
		return "UNEXPECTED_SOB"
	case BitstreamInvalResp:
		return "INVAL_RESP"
	case BitstreamErrResp:
		return "ERR_RESP"
	case BitstreamInvalPkt:
		return "INVAL_PKT"
	case BitstreamErrPkt:
		return "ERR_PKT"
	case BitstreamIncompleteTile:
		return "INCOMPLETE_TILES"
	case BitstreamErrorTiles:
		return "ERROR_TILES"
	default:
		return fmt.Sprintf("BitstreamErrorType(0x%02x)", uint8(t))
	}
}

// A DeviceError is one decoded controller error word: NoError, AddrError,
// TileCountError, PacketError or URegError.
type DeviceError interface {
	Type() ErrorType
	isDeviceError()
}

type (
	// NoError is read from an empty error FIFO.
	NoError struct{}

	// AddrError reports a protocol violation or an invalid access.
	AddrError struct {
		Kind ErrorType // PROTOCOL_VIOLATION, INVAL_WR or INVAL_RD
		Addr uint16
	}

	// TileCountError reports tiles left incomplete or in error at the end
	// of a bitstream.
	TileCountError struct {
		Sub   BitstreamErrorType // INCOMPLETE_TILES or ERROR_TILES
		Tiles uint16
	}

	// PacketError carries the header of the packet that caused a
	// bitstream or programming response error.
	PacketError struct {
		Kind   ErrorType          // BITSTREAM or PROG_RESP
		Sub    BitstreamErrorType // zero for PROG_RESP
		Packet uint32
	}

	// URegError reports a failed user register access.
	URegError struct {
		Kind        ErrorType // UREG_RD or UREG_WR
		Addr        uint16
		Resp        uint8 // AXI rresp/bresp
		RespTimeout bool
		ReqTimeout  bool
	}
)

func (NoError) Type() ErrorType { return ErrorNone }
func (e AddrError) Type() ErrorType { return e.Kind }
func (TileCountError) Type() ErrorType { return ErrorBitstream }
func (e PacketError) Type() ErrorType { return e.Kind }
func (e URegError) Type() ErrorType { return e.Kind }
func (NoError) isDeviceError() {}
func (AddrError) isDeviceError() {}
func (TileCountError) isDeviceError() {}
func (PacketError) isDeviceError() {}
func (URegError) isDeviceError() {}

// DecodeError decodes a 64-bit word popped from ERR_FIFO or UERR_FIFO.
func DecodeError(word uint64) (DeviceError, error) {
	switch t := ErrorType(word >> 56); t {
	case ErrorNone:
		return NoError{}, nil
	case ErrorProtocolViolation, ErrorInvalWr, ErrorInvalRd:
		return AddrError{Kind: t, Addr: uint16(word & addrMask)}, nil
	case ErrorBitstream:
		switch sub := BitstreamErrorType(word >> 48); sub {
		case BitstreamIncompleteTile, BitstreamErrorTiles:
			return TileCountError{Sub: sub, Tiles: uint16(word)}, nil
		case BitstreamExpectingSOB, BitstreamUnexpectedSOB,
			BitstreamInvalResp, BitstreamErrResp,
			BitstreamInvalPkt, BitstreamErrPkt:
			return PacketError{Kind: t, Sub: sub, Packet: uint32(word)}, nil
		default:
			return nil, &UnknownCodeError{What: "bitstream sub-error type", Raw: uint64(sub)}
		}
	case ErrorProgResp:
		return PacketError{Kind: t, Packet: uint32(word)}, nil
	case ErrorURegRd, ErrorURegWr:
		return URegError{
			Kind:        t,
			Addr:        uint16(word & addrMask),
			Resp:        uint8(word>>32) & 0x3,
			RespTimeout: word&(1<<34) != 0,
			ReqTimeout:  word&(1<<35) != 0,
		}, nil
	default:
		return nil, &UnknownCodeError{What: "error type", Raw: uint64(t)}
	}
}

// EncodeError packs a DeviceError into the controller's error word format.
func EncodeError(e DeviceError) (uint64, error) {
	word := uint64(e.Type()) << 56
	switch e := e.(type) {
	case NoError:
	case AddrError:
		switch e.Kind {
		case ErrorProtocolViolation, ErrorInvalWr, ErrorInvalRd:
		default:
			return 0, &UnknownCodeError{What: "address error type", Raw: uint64(e.Kind)}
		}
		if uint64(e.Addr) > addrMask {
			return 0, &FieldOverflowError{Field: "address", Value: int(e.Addr), Bits: AddrWidth}
		}
		word |= uint64(e.Addr)
	case TileCountError:
		if e.Sub != BitstreamIncompleteTile && e.Sub != BitstreamErrorTiles {
			return 0, &UnknownCodeError{What: "bitstream sub-error type", Raw: uint64(e.Sub)}
		}
		word |= uint64(e.Sub)<<48 | uint64(e.Tiles)
	case PacketError:
		switch {
		case e.Kind == ErrorProgResp && e.Sub == 0:
		case e.Kind == ErrorBitstream && e.Sub >= BitstreamExpectingSOB && e.Sub <= BitstreamErrPkt:
			word |= uint64(e.Sub) << 48
		default:
			return 0, &UnknownCodeError{What: "packet error type", Raw: uint64(e.Kind)<<8 | uint64(e.Sub)}
		}
		word |= uint64(e.Packet)
	case URegError:
		if e.Kind != ErrorURegRd && e.Kind != ErrorURegWr {
			return 0, &UnknownCodeError{What: "user register error type", Raw: uint64(e.Kind)}
		}
		if uint64(e.Addr) > addrMask {
			return 0, &FieldOverflowError{Field: "address", Value: int(e.Addr), Bits: AddrWidth}
		}
		if e.Resp > 0x3 {
			return 0, &FieldOverflowError{Field: "response", Value: int(e.Resp), Bits: 2}
		}
		word |= uint64(e.Addr) | uint64(e.Resp)<<32
		if e.RespTimeout {
			word |= 1 << 34
		}
		if e.ReqTimeout {
			word |= 1 << 35
		}
	}
	return word, nil
}
