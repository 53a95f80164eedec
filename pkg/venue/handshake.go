package venue

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/textproto"
)

// BuildUpgradeRequest renders the HTTP/1.1 Upgrade request by hand:
// Host, Authorization: Bearer <jwt>, Connection: Upgrade, Upgrade:
// websocket, Sec-WebSocket-Version: 13, Sec-WebSocket-Key. Returns the
// request bytes and the key so the caller can validate the server's
// Sec-WebSocket-Accept (left to the caller since that check belongs to
// whichever transport owns the socket).
func BuildUpgradeRequest(host, path, jwt string) (req []byte, key string, err error) {
	key, err = newWebSocketKey()
	if err != nil {
		return nil, "", err
	}

	buf := fmt.Sprintf(
		"GET %s HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"Authorization: Bearer %s\r\n"+
			"Connection: Upgrade\r\n"+
			"Upgrade: websocket\r\n"+
			"Sec-WebSocket-Version: 13\r\n"+
			"Sec-WebSocket-Key: %s\r\n"+
			"\r\n",
		path, host, jwt, key,
	)
	return []byte(buf), key, nil
}

// newWebSocketKey generates a random 16-byte Sec-WebSocket-Key, base64
// encoded per RFC 6455 §4.1.
func newWebSocketKey() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("%w: key generation: %v", ErrWebSocket, err)
	}
	return base64.StdEncoding.EncodeToString(raw[:]), nil
}

// ReadUpgradeResponse reads and validates the server's "101 Switching
// Protocols" response line and headers from r.
func ReadUpgradeResponse(r io.Reader) error {
	tp := textproto.NewReader(bufio.NewReader(r))
	statusLine, err := tp.ReadLine()
	if err != nil {
		return fmt.Errorf("%w: reading status line: %v", ErrWebSocket, err)
	}
	if len(statusLine) < 12 || statusLine[9:12] != "101" {
		return fmt.Errorf("%w: unexpected handshake status line %q", ErrWebSocket, statusLine)
	}

	if _, err := tp.ReadMIMEHeader(); err != nil {
		return fmt.Errorf("%w: reading handshake headers: %v", ErrWebSocket, err)
	}
	return nil
}
