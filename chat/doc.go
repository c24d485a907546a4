// Package chat provides the broadcast chat server built on the raw
// WebSocket protocol layer.
//
// The chat package implements:
//   - An accept loop spawning one goroutine per connection
//   - The per-connection handler driving handshake, join, and frame loop
//   - A thread-safe registry of live connections and display names
//   - Fan-out of each sender's messages to every other registered peer
//
// Architecture:
//
// The package uses a hub-and-spoke model where the Registry is the only
// state shared between handlers. Each accepted connection is handled by a
// dedicated goroutine that performs the upgrade handshake, reads the first
// text frame as the peer's display name, and then processes frames in
// arrival order until the connection closes.
//
// Message Protocol:
//
// Messages are plain text carried in TEXT frames:
//   - "<name> joined the chat" when a peer registers
//   - "<name>: <body>" for every chat line, never echoed to the sender
//   - "<name> has left the chat" when a peer unregisters
//
// Broadcast:
//
// Broadcast takes a point-in-time snapshot of the registry under a
// short-held lock and writes to each recipient outside the lock. Writes are
// synchronous; a failed write drops only that recipient and the broadcast
// continues. There is no retry and no backpressure.
//
// Connection Lifecycle:
//
// 1. TCP accept, handshake (no registry entry yet)
// 2. First text frame registers the display name, join announcement
// 3. Frame loop: text broadcast, ping/pong, close handshake
// 4. Unregister, leave announcement, transport teardown
//
// Concurrency:
//
// Handlers run independently; one peer's malformed frames or dropped link
// never affect another session. Each connection serializes its own frame
// writes, so a broadcast and a pong reply cannot interleave on the wire.
package chat
