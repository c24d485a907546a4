package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeFrame serializes a single final frame: header byte 1 (FIN set, RSV
// clear, opcode), header byte 2 onward (MASK bit plus the minimal-width
// length encoding), an optional fresh 4-byte masking key, then the payload.
// The input payload is not modified; masking XORs into a copy.
func EncodeFrame(opcode byte, payload []byte, mask bool) ([]byte, error) {
	if isControlOpcode(opcode) && len(payload) > maxControlPayload {
		return nil, fmt.Errorf("%w: control frame payload %d exceeds %d bytes",
			ErrProtocolViolation, len(payload), maxControlPayload)
	}

	frame := make([]byte, 0, 14+len(payload))
	frame = append(frame, finBit|opcode)

	var maskFlag byte
	if mask {
		maskFlag = maskBit
	}

	payloadLen := len(payload)
	switch {
	case payloadLen <= 125:
		frame = append(frame, maskFlag|byte(payloadLen))
	case payloadLen <= 0xFFFF:
		frame = append(frame, maskFlag|126)
		frame = binary.BigEndian.AppendUint16(frame, uint16(payloadLen))
	default:
		frame = append(frame, maskFlag|127)
		frame = binary.BigEndian.AppendUint64(frame, uint64(payloadLen))
	}

	if !mask {
		return append(frame, payload...), nil
	}

	key, err := newMaskKey()
	if err != nil {
		return nil, err
	}
	frame = append(frame, key[:]...)

	masked := make([]byte, payloadLen)
	copy(masked, payload)
	maskBytes(masked, key)
	return append(frame, masked...), nil
}

// DecodeFrame reads exactly one frame from r. It returns ErrTruncatedFrame
// when r ends mid-frame and ErrProtocolViolation when the header declares a
// reserved opcode or an oversized control payload. Masked payloads are
// unmasked before return.
func DecodeFrame(r io.Reader) (*Frame, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, truncated("header", err)
	}

	frame := &Frame{
		Fin:    header[0]&finBit != 0,
		Opcode: header[0] & 0x0F,
		Masked: header[1]&maskBit != 0,
	}
	if !isKnownOpcode(frame.Opcode) {
		return nil, fmt.Errorf("%w: reserved opcode 0x%X", ErrProtocolViolation, frame.Opcode)
	}

	baseLen := header[1] & 0x7F
	if frame.IsControl() && baseLen > maxControlPayload {
		return nil, fmt.Errorf("%w: control frame declares payload length %d",
			ErrProtocolViolation, baseLen)
	}

	switch baseLen {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, truncated("extended length", err)
		}
		frame.PayloadLen = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, truncated("extended length", err)
		}
		frame.PayloadLen = binary.BigEndian.Uint64(ext[:])
	default:
		frame.PayloadLen = uint64(baseLen)
	}

	if frame.PayloadLen > maxFramePayload {
		return nil, fmt.Errorf("%w: payload length %d exceeds limit",
			ErrProtocolViolation, frame.PayloadLen)
	}

	if frame.Masked {
		if _, err := io.ReadFull(r, frame.MaskKey[:]); err != nil {
			return nil, truncated("masking key", err)
		}
	}

	frame.Payload = make([]byte, frame.PayloadLen)
	if _, err := io.ReadFull(r, frame.Payload); err != nil {
		return nil, truncated("payload", err)
	}
	if frame.Masked {
		maskBytes(frame.Payload, frame.MaskKey)
	}

	return frame, nil
}

// maskBytes XORs b in place with the repeating 4-byte key. Masking is its
// own inverse, so the same call unmasks.
func maskBytes(b []byte, key [4]byte) {
	for i := range b {
		b[i] ^= key[i%4]
	}
}

// newMaskKey returns an unpredictable masking key for one outgoing frame.
func newMaskKey() ([4]byte, error) {
	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("generating masking key: %w", err)
	}
	return key, nil
}

func truncated(section string, err error) error {
	return fmt.Errorf("%w: reading %s: %v", ErrTruncatedFrame, section, err)
}
