package chat

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mrinalxdev/websocket/protocol"
)

// Server accepts raw TCP connections, upgrades them to WebSocket, and fans
// every peer's messages out to all other registered peers.
type Server struct {
	addr     string
	registry *Registry

	mu       sync.Mutex
	listener net.Listener

	handlers sync.WaitGroup
	stopping atomic.Bool
}

// NewServer creates a server that will bind to addr.
func NewServer(addr string) *Server {
	return &Server{
		addr:     addr,
		registry: NewRegistry(),
	}
}

// Listen binds the listening socket. A bind failure is fatal for the
// process; the caller reports and exits.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Registry exposes the live-connection registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// ListenAndServe binds the socket and runs the accept loop.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve runs the accept loop. Each accepted connection gets its own
// handler goroutine; the loop itself never blocks on a single peer.
// Serve returns nil after Shutdown closes the listener.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("serve called before listen")
	}

	log.Printf("chat server listening on %s", listener.Addr())
	for {
		nc, err := listener.Accept()
		if err != nil {
			if s.stopping.Load() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.handle(nc)
		}()
	}
}

// Shutdown stops accepting, sends a best-effort close frame to every
// registered peer, and waits for handlers until ctx expires, after which
// remaining transports are torn down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopping.Store(true)
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	for _, member := range s.registry.Snapshot(nil) {
		member.transitionTo(StateOpen, StateClosing)
		if err := member.ws.WriteClose(nil); err != nil {
			log.Printf("close to %s failed: %v", member.name, err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		for _, member := range s.registry.Snapshot(nil) {
			member.ws.Close()
		}
		return ctx.Err()
	}
}

// handle drives one connection from handshake to teardown.
func (s *Server) handle(nc net.Conn) {
	ws := protocol.NewServerConn(nc)
	conn := newConnection(ws)

	if err := ws.AcceptHandshake(); err != nil {
		log.Printf("handshake with %s failed: %v", nc.RemoteAddr(), err)
		conn.setState(StateClosed)
		nc.Close()
		return
	}
	conn.setState(StateOpen)

	// The first text frame announces the peer's display name. Anything
	// else means the peer never joins.
	name, err := s.readDisplayName(ws)
	if err != nil {
		log.Printf("peer %s sent no display name: %v", nc.RemoteAddr(), err)
		conn.setState(StateClosed)
		nc.Close()
		return
	}
	conn.name = name

	s.registry.Register(conn, name)
	log.Printf("%s connected as %q (%s)", nc.RemoteAddr(), name, conn.id)
	s.broadcast(conn, fmt.Sprintf("%s joined the chat", name))

	defer s.drop(conn)

	for {
		frame, err := ws.ReadFrame()
		if err != nil {
			// Truncated streams and protocol violations abort the
			// connection as if a close arrived, without the echo.
			log.Printf("%q read failed: %v", name, err)
			return
		}

		switch frame.Opcode {
		case protocol.OpcodeText:
			s.broadcast(conn, fmt.Sprintf("%s: %s", name, frame.Payload))
		case protocol.OpcodePing:
			if err := ws.WritePong(frame.Payload); err != nil {
				log.Printf("pong to %q failed: %v", name, err)
				return
			}
		case protocol.OpcodePong:
			// Liveness acknowledgment only.
		case protocol.OpcodeClose:
			if conn.transitionTo(StateOpen, StateClosing) {
				ws.WriteClose(frame.Payload)
			}
			return
		default:
			// Binary and continuation frames carry nothing the chat
			// understands; ignore them.
		}
	}
}

// readDisplayName blocks for the first complete frame and interprets its
// text payload as the join announcement.
func (s *Server) readDisplayName(ws *protocol.Conn) (string, error) {
	frame, err := ws.ReadFrame()
	if err != nil {
		return "", err
	}
	if frame.Opcode != protocol.OpcodeText {
		return "", fmt.Errorf("first frame has opcode 0x%X, want text", frame.Opcode)
	}
	name := strings.TrimSpace(string(frame.Payload))
	if name == "" {
		return "", fmt.Errorf("empty display name")
	}
	return name, nil
}

// broadcast writes message to every registered connection except sender.
// The registry lock is only held while taking the snapshot; writes happen
// outside it. A failed recipient is dropped asynchronously and the
// broadcast continues.
func (s *Server) broadcast(sender *Connection, message string) {
	for _, member := range s.registry.Snapshot(sender) {
		if err := member.ws.WriteText(message); err != nil {
			log.Printf("dropping %q: broadcast write failed: %v", member.name, err)
			go s.drop(member)
		}
	}
}

// drop unregisters the connection, announces the departure exactly once,
// and tears down the transport. Safe to call from the handler and from a
// failed broadcast write concurrently.
func (s *Server) drop(c *Connection) {
	if s.registry.Unregister(c) {
		s.broadcast(c, fmt.Sprintf("%s has left the chat", c.name))
		log.Printf("%q disconnected (%s)", c.name, c.id)
	}
	c.setState(StateClosed)
	c.ws.Close()
}
