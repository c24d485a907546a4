package protocol

import (
	"bufio"
	"net"
	"sync"
	"time"
)

// Conn wraps an established TCP connection with buffered frame I/O. The side
// the Conn was created for fixes the masking discipline: client conns mask
// every outgoing frame, server conns never do.
type Conn struct {
	raw   net.Conn
	bufrw *bufio.ReadWriter

	// maskWrites is true on the client side; frames sent client-to-server
	// must carry a masking key, frames sent server-to-client must not.
	maskWrites bool

	// writeMu serializes whole frames from concurrent writers so a
	// broadcast and a pong reply never interleave their bytes.
	writeMu sync.Mutex
}

// NewServerConn wraps an accepted connection. Outgoing frames are unmasked.
func NewServerConn(nc net.Conn) *Conn {
	return newConn(nc, false)
}

// NewClientConn wraps a dialed connection. Outgoing frames are masked.
func NewClientConn(nc net.Conn) *Conn {
	return newConn(nc, true)
}

func newConn(nc net.Conn, maskWrites bool) *Conn {
	return &Conn{
		raw:        nc,
		bufrw:      bufio.NewReadWriter(bufio.NewReader(nc), bufio.NewWriter(nc)),
		maskWrites: maskWrites,
	}
}

// AcceptHandshake runs the server side of the upgrade key exchange.
func (c *Conn) AcceptHandshake() error {
	return acceptHandshake(c.bufrw)
}

// InitiateHandshake runs the client side of the upgrade key exchange
// against the given host, requesting path (default "/").
func (c *Conn) InitiateHandshake(host, path string) error {
	return initiateHandshake(c.bufrw, host, path)
}

// ReadFrame blocks until one complete frame arrives. Only one goroutine may
// read at a time.
func (c *Conn) ReadFrame() (*Frame, error) {
	return DecodeFrame(c.bufrw)
}

// WriteFrame encodes and sends one frame, holding the write lock for the
// whole frame.
func (c *Conn) WriteFrame(opcode byte, payload []byte) error {
	frame, err := EncodeFrame(opcode, payload, c.maskWrites)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.raw.SetWriteDeadline(time.Now().Add(writeWait))
	if _, err := c.bufrw.Write(frame); err != nil {
		return err
	}
	return c.bufrw.Flush()
}

// WriteText sends a final text frame.
func (c *Conn) WriteText(text string) error {
	return c.WriteFrame(OpcodeText, []byte(text))
}

// WriteClose sends a close frame, echoing payload when the close answers a
// peer-initiated close.
func (c *Conn) WriteClose(payload []byte) error {
	return c.WriteFrame(OpcodeClose, payload)
}

// WritePing sends a ping frame.
func (c *Conn) WritePing(payload []byte) error {
	return c.WriteFrame(OpcodePing, payload)
}

// WritePong sends a pong frame carrying the ping payload back.
func (c *Conn) WritePong(payload []byte) error {
	return c.WriteFrame(OpcodePong, payload)
}

// RemoteAddr returns the peer address of the underlying transport.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Close tears down the underlying transport, unblocking any pending read.
func (c *Conn) Close() error {
	return c.raw.Close()
}
