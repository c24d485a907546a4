package protocol

import "errors"

var (
	// ErrTruncatedFrame is returned when the byte source closes before a
	// complete frame could be read.
	ErrTruncatedFrame = errors.New("truncated frame")

	// ErrProtocolViolation is returned when a frame declares a reserved
	// opcode, an oversized control payload, or a payload beyond the
	// per-frame limit.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrMalformedHandshake is returned when the upgrade request or
	// response cannot be parsed or is not a WebSocket upgrade.
	ErrMalformedHandshake = errors.New("malformed handshake")

	// ErrMissingKey is returned by the server side when the upgrade
	// request has no usable Sec-WebSocket-Key header.
	ErrMissingKey = errors.New("missing or malformed Sec-WebSocket-Key header")

	// ErrAcceptMismatch is returned by the client side when the server's
	// Sec-WebSocket-Accept value does not match the expected digest.
	ErrAcceptMismatch = errors.New("Sec-WebSocket-Accept mismatch")
)
