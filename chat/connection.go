package chat

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mrinalxdev/websocket/protocol"
)

// State tracks where a connection is in its lifecycle.
type State int32

const (
	StateHandshaking State = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns the lowercase state name for logs.
func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection is one accepted peer. The display name stays empty until the
// first text frame arrives and the peer is registered.
type Connection struct {
	id    string
	ws    *protocol.Conn
	name  string
	state atomic.Int32
}

func newConnection(ws *protocol.Conn) *Connection {
	c := &Connection{
		id: uuid.NewString(),
		ws: ws,
	}
	c.state.Store(int32(StateHandshaking))
	return c
}

// ID returns the opaque connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// Name returns the display name, empty before registration.
func (c *Connection) Name() string {
	return c.name
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

// transitionTo moves to next only when the connection is still in expected.
// Reports whether the transition happened.
func (c *Connection) transitionTo(expected, next State) bool {
	return c.state.CompareAndSwap(int32(expected), int32(next))
}
