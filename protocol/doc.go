// Package protocol implements the WebSocket wire protocol (RFC 6455) directly
// on top of raw TCP connections, without net/http servers or a prebuilt
// WebSocket library.
//
// The protocol package implements:
//   - Frame encoding and decoding with minimal-width length encoding
//   - Client-to-server payload masking with per-frame random keys
//   - The HTTP-upgrade handshake key exchange, both sides
//   - A connection wrapper that serializes concurrent frame writes
//
// Frame Layout:
//
// Every frame starts with two header bytes: FIN(1) RSV(3) OPCODE(4) and
// MASK(1) LEN(7). A base length of 126 or 127 announces a 16-bit or 64-bit
// big-endian extended length. A 4-byte masking key follows when the MASK bit
// is set, then the payload, XOR-masked byte-by-byte with the repeating key.
//
// Handshake:
//
// The client sends a GET request carrying Sec-WebSocket-Key, a random
// 16-byte value in base64. The server answers 101 Switching Protocols with
// Sec-WebSocket-Accept set to base64(SHA1(key + GUID)). Both sides compute
// the accept value independently; a mismatch aborts the connection before
// any frame is exchanged.
//
// Usage:
//
//	conn := protocol.NewServerConn(netConn)
//	if err := conn.AcceptHandshake(); err != nil {
//		netConn.Close()
//		return
//	}
//	frame, err := conn.ReadFrame()
//
// Concurrency:
//
// DecodeFrame and EncodeFrame are pure and safe for concurrent use. A Conn
// allows one reader; writes may come from any number of goroutines and are
// serialized internally so frames from unrelated writers never interleave
// their bytes on the wire.
package protocol
