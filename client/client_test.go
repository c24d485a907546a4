package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mrinalxdev/websocket/chat"
)

// syncBuffer lets the test read output while the inbound flow writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startServer(t *testing.T) (*chat.Server, string) {
	t.Helper()
	srv := chat.NewServer("127.0.0.1:0")
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	go srv.Serve()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv, srv.Addr().String()
}

func waitForMembers(t *testing.T, srv *chat.Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if srv.Registry().Len() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry has %d members, want %d", srv.Registry().Len(), want)
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(message)
}

func waitForOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("output %q never contained %q", out.String(), want)
}

func TestSessionEndToEnd(t *testing.T) {
	srv, addr := startServer(t)

	// An independent peer observing the room.
	watcher, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
	if err != nil {
		t.Fatalf("watcher dial failed: %v", err)
	}
	defer watcher.Close()
	if err := watcher.WriteMessage(websocket.TextMessage, []byte("watcher")); err != nil {
		t.Fatalf("watcher join failed: %v", err)
	}
	waitForMembers(t, srv, 1)

	input, inputWriter := io.Pipe()
	defer inputWriter.Close()
	output := &syncBuffer{}

	session, err := Dial(addr, "gopher", input, output)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitForMembers(t, srv, 2)

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.Run(context.Background())
	}()

	if got := readText(t, watcher); got != "gopher joined the chat" {
		t.Errorf("watcher read %q, want %q", got, "gopher joined the chat")
	}

	// Outbound: a typed line reaches the other peer, prefixed with the name.
	io.WriteString(inputWriter, "hello room\n")
	if got := readText(t, watcher); got != "gopher: hello room" {
		t.Errorf("watcher read %q, want %q", got, "gopher: hello room")
	}

	// Inbound: the watcher's message shows up on the client's output.
	if err := watcher.WriteMessage(websocket.TextMessage, []byte("hey")); err != nil {
		t.Fatalf("watcher send failed: %v", err)
	}
	waitForOutput(t, output, "watcher: hey")

	// The exit command runs the close handshake and ends the session.
	io.WriteString(inputWriter, ExitCommand+"\n")
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end after the exit command")
	}

	if got := readText(t, watcher); got != "gopher has left the chat" {
		t.Errorf("watcher read %q, want %q", got, "gopher has left the chat")
	}
}

func TestServerCloseEndsSession(t *testing.T) {
	srv, addr := startServer(t)

	input, inputWriter := io.Pipe()
	defer inputWriter.Close()

	session, err := Dial(addr, "gopher", input, &syncBuffer{})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitForMembers(t, srv, 1)

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.Run(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go srv.Shutdown(ctx)

	// The inbound flow must stop the session even though the outbound
	// flow is still blocked on input.
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end after the server closed")
	}
}

func TestInputEOFRunsCloseHandshake(t *testing.T) {
	srv, addr := startServer(t)

	session, err := Dial(addr, "gopher", strings.NewReader(""), &syncBuffer{})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitForMembers(t, srv, 1)

	if err := session.Run(context.Background()); err != nil {
		t.Errorf("Run returned %v, want nil", err)
	}
	waitForMembers(t, srv, 0)
}

func TestDialRefusedConnection(t *testing.T) {
	// Grab an address nobody is listening on.
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe listen failed: %v", err)
	}
	addr := probe.Addr().String()
	probe.Close()

	if _, err := Dial(addr, "gopher", strings.NewReader(""), &syncBuffer{}); err == nil {
		t.Error("Dial to a dead address should fail")
	}
}
