// Package client implements the interactive chat client.
//
// The client package implements:
//   - TCP connect plus the client side of the upgrade handshake
//   - The join announcement (display name as the first text frame)
//   - Two concurrent flows: outbound line input and inbound frames
//   - The close handshake, initiated by either side
//
// Session Flow:
//
// Dial establishes the connection and announces the display name. Run then
// starts the outbound flow, which reads one line of input at a time and
// sends it as a masked text frame, and the inbound flow, which prints
// received text, answers pings, and handles close frames. The literal
// "/exit" line sends a close frame and waits a bounded time for the
// server's acknowledgment.
//
// Termination:
//
// Either flow ending forces the other to stop: tearing down the transport
// unblocks the pending frame read, and the outbound flow checks for
// shutdown before every send. Run returns once the session is over.
package client
