package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrinalxdev/websocket/protocol"
)

// ExitCommand is the literal input line that ends the session.
const ExitCommand = "/exit"

// closeGrace bounds the wait for the server's close acknowledgment after
// the client initiates the close handshake.
const closeGrace = 2 * time.Second

// Client is one chat session. Input lines come from input, received
// messages go to output.
type Client struct {
	ws     *protocol.Conn
	name   string
	input  io.Reader
	output io.Writer

	done       chan struct{}
	stopOnce   sync.Once
	runErr     error
	selfClosed atomic.Bool
	closeAck   chan struct{}
	ackOnce    sync.Once
}

// Dial connects to a chat server, runs the handshake, and announces the
// display name as the first masked text frame.
func Dial(addr, name string, input io.Reader, output io.Writer) (*Client, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	ws := protocol.NewClientConn(nc)
	if err := ws.InitiateHandshake(addr, "/"); err != nil {
		nc.Close()
		return nil, err
	}
	if err := ws.WriteText(name); err != nil {
		nc.Close()
		return nil, fmt.Errorf("announcing display name: %w", err)
	}

	return &Client{
		ws:       ws,
		name:     name,
		input:    input,
		output:   output,
		done:     make(chan struct{}),
		closeAck: make(chan struct{}),
	}, nil
}

// Name returns the display name the session joined under.
func (c *Client) Name() string {
	return c.name
}

// Run drives the session until it ends: the exit command, a close from the
// server, a transport failure, or ctx cancellation.
func (c *Client) Run(ctx context.Context) error {
	go c.inbound()
	go c.outbound()

	select {
	case <-ctx.Done():
		c.initiateClose()
		return ctx.Err()
	case <-c.done:
		return c.runErr
	}
}

// outbound reads one line of input at a time and sends it as a text frame.
func (c *Client) outbound() {
	scanner := bufio.NewScanner(c.input)
	for {
		fmt.Fprint(c.output, "> ")
		if !scanner.Scan() {
			// End of input behaves like the exit command.
			c.initiateClose()
			return
		}
		line := scanner.Text()

		select {
		case <-c.done:
			return
		default:
		}

		if strings.EqualFold(strings.TrimSpace(line), ExitCommand) {
			c.initiateClose()
			return
		}
		if line == "" {
			continue
		}
		if err := c.ws.WriteText(line); err != nil {
			c.stop(fmt.Errorf("send failed: %w", err))
			return
		}
	}
}

// inbound decodes frames as they arrive until the connection ends.
func (c *Client) inbound() {
	for {
		frame, err := c.ws.ReadFrame()
		if err != nil {
			if c.selfClosed.Load() {
				// Our own teardown raced the server's acknowledgment.
				c.stop(nil)
			} else {
				c.stop(fmt.Errorf("connection lost: %w", err))
			}
			return
		}

		switch frame.Opcode {
		case protocol.OpcodeText:
			fmt.Fprintf(c.output, "\r%s\n> ", frame.Payload)
		case protocol.OpcodePing:
			if err := c.ws.WritePong(frame.Payload); err != nil {
				c.stop(fmt.Errorf("pong failed: %w", err))
				return
			}
		case protocol.OpcodePong:
			// Liveness acknowledgment only.
		case protocol.OpcodeClose:
			if c.selfClosed.Load() {
				c.ackOnce.Do(func() { close(c.closeAck) })
			} else {
				c.ws.WriteClose(frame.Payload)
			}
			c.stop(nil)
			return
		}
	}
}

// initiateClose sends a close frame and waits a bounded time for the
// server's acknowledgment before tearing the session down.
func (c *Client) initiateClose() {
	c.selfClosed.Store(true)
	c.ws.WriteClose(nil)

	select {
	case <-c.closeAck:
	case <-c.done:
	case <-time.After(closeGrace):
	}
	c.stop(nil)
}

// stop ends the session once. Closing the transport unblocks the inbound
// flow's pending read.
func (c *Client) stop(err error) {
	c.stopOnce.Do(func() {
		c.runErr = err
		close(c.done)
		c.ws.Close()
	})
}
