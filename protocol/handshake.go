package protocol

import (
	"bufio"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// websocketGUID is the fixed key-derivation suffix from RFC 6455 section 1.3.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ComputeAcceptKey derives the Sec-WebSocket-Accept value for a client key:
// base64(SHA1(key + GUID)).
func ComputeAcceptKey(clientKey string) string {
	hash := sha1.Sum([]byte(clientKey + websocketGUID))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// GenerateKey returns a fresh Sec-WebSocket-Key: 16 random bytes in base64.
func GenerateKey() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating handshake key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(nonce), nil
}

// acceptHandshake runs the server side of the upgrade on an accepted
// connection: parse the request line and header block, validate the upgrade
// headers, and answer 101 Switching Protocols with the computed accept value.
func acceptHandshake(rw *bufio.ReadWriter) error {
	req, err := http.ReadRequest(rw.Reader)
	if err != nil {
		return fmt.Errorf("%w: reading upgrade request: %v", ErrMalformedHandshake, err)
	}
	if req.Method != http.MethodGet {
		return fmt.Errorf("%w: method %s, want GET", ErrMalformedHandshake, req.Method)
	}
	if !headerContainsToken(req.Header, "Connection", "upgrade") ||
		!headerContainsToken(req.Header, "Upgrade", "websocket") {
		return fmt.Errorf("%w: missing upgrade headers", ErrMalformedHandshake)
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	if !isValidClientKey(key) {
		return ErrMissingKey
	}

	response := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + ComputeAcceptKey(key) + "\r\n\r\n"
	if _, err := rw.WriteString(response); err != nil {
		return fmt.Errorf("writing handshake response: %w", err)
	}
	return rw.Flush()
}

// initiateHandshake runs the client side of the upgrade: send the GET
// request with a fresh key, then verify the server echoed the expected
// accept value.
func initiateHandshake(rw *bufio.ReadWriter, host, path string) error {
	key, err := GenerateKey()
	if err != nil {
		return err
	}
	if path == "" {
		path = "/"
	}

	request := "GET " + path + " HTTP/1.1\r\n" +
		"Host: " + host + "\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + key + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	if _, err := rw.WriteString(request); err != nil {
		return fmt.Errorf("writing upgrade request: %w", err)
	}
	if err := rw.Flush(); err != nil {
		return fmt.Errorf("writing upgrade request: %w", err)
	}

	resp, err := http.ReadResponse(rw.Reader, nil)
	if err != nil {
		return fmt.Errorf("%w: reading upgrade response: %v", ErrMalformedHandshake, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		return fmt.Errorf("%w: status %q, want 101 Switching Protocols",
			ErrMalformedHandshake, resp.Status)
	}

	if accept := resp.Header.Get("Sec-WebSocket-Accept"); accept != ComputeAcceptKey(key) {
		return fmt.Errorf("%w: got %q", ErrAcceptMismatch, accept)
	}
	return nil
}

// isValidClientKey checks that the key decodes to exactly 16 bytes.
func isValidClientKey(key string) bool {
	if key == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	return err == nil && len(decoded) == 16
}

// headerContainsToken reports whether the comma-separated header value
// contains token, case-insensitively.
func headerContainsToken(h http.Header, name, token string) bool {
	for _, value := range h.Values(name) {
		for _, part := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}
