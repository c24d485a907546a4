package protocol

import "time"

// Frame opcodes defined by RFC 6455 section 5.2. Opcodes 0x3-0x7 and
// 0xB-0xF are reserved and rejected on decode.
const (
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA
)

const (
	// finBit and maskBit mark the high bit of header bytes 1 and 2.
	finBit  = 0x80
	maskBit = 0x80

	// maxControlPayload is the RFC 6455 cap on control-frame payloads.
	maxControlPayload = 125

	// maxFramePayload caps a single frame so one peer cannot make the
	// server allocate unbounded memory.
	maxFramePayload = 1 << 20 // 1 MiB

	// writeWait is the time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
)

// Frame is one decoded WebSocket frame.
type Frame struct {
	Fin        bool
	Opcode     byte
	Masked     bool
	PayloadLen uint64
	MaskKey    [4]byte
	Payload    []byte
}

// IsControl reports whether the frame carries a control opcode
// (close, ping, pong).
func (f *Frame) IsControl() bool {
	return isControlOpcode(f.Opcode)
}

func isControlOpcode(opcode byte) bool {
	return opcode&0x8 != 0
}

func isKnownOpcode(opcode byte) bool {
	switch opcode {
	case OpcodeContinuation, OpcodeText, OpcodeBinary,
		OpcodeClose, OpcodePing, OpcodePong:
		return true
	}
	return false
}
