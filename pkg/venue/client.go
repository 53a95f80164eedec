// client.go wires the lexer/parser/mapper and the masking frame layer into
// a small dialer: open a TCP connection, perform the JWT handshake, then
// offer Send (outgoing requests) and Messages (decoded incoming
// responses/events) to whoever owns the gateway wiring. There is no
// reconnect supervision here; this type performs the one dial
// cmd/workerd needs to start the process, and TLS termination belongs to
// whatever fronts the venue socket.

package venue

import (
	"fmt"
	"net"

	"go.uber.org/zap"
)

// Client owns one live connection to the venue and implements
// gateway.VenueSender.
type Client struct {
	conn net.Conn
	log  *zap.Logger
}

// Dial opens a TCP connection to addr, performs the HTTP/1.1 to
// WebSocket upgrade handshake at path with the given JWT, and returns a
// ready-to-use Client.
func Dial(addr, host, path, jwt string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrWebSocket, addr, err)
	}

	req, _, err := BuildUpgradeRequest(host, path, jwt)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Write(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: write handshake: %v", ErrWebSocket, err)
	}
	if err := ReadUpgradeResponse(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{conn: conn, log: log}, nil
}

// Send masks and writes frame as a single fin'd text frame, satisfying
// gateway.VenueSender. The gateway builds the frame first and calls Send
// only after every store mutation for the request has committed, so no
// store lock is ever held across this write.
func (c *Client) Send(frame []byte) error {
	return WriteMasked(c.conn, OpText, true, frame)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Messages runs the read loop in its own goroutine, decoding complete
// venue messages and sending them on the returned channel until the
// connection closes or stop fires. A malformed frame is logged and
// dropped rather than closing the channel; a bad event must not kill the
// worker.
func (c *Client) Messages(stop <-chan struct{}) <-chan any {
	out := make(chan any, 64)
	go func() {
		defer close(out)
		var reassembler Reassembler
		for {
			select {
			case <-stop:
				return
			default:
			}

			frame, err := ReadFrame(c.conn)
			if err != nil {
				c.log.Warn("venue: connection read failed, stopping message loop", zap.Error(err))
				return
			}
			if frame.Opcode == OpClose {
				c.log.Info("venue: server closed connection")
				return
			}

			payload, _, complete, err := reassembler.Feed(frame)
			if err != nil {
				c.log.Warn("venue: frame reassembly error, dropping", zap.Error(err))
				continue
			}
			if !complete || payload == nil {
				continue
			}

			msg, err := ParseMessage(payload)
			if err != nil {
				c.log.Warn("venue: malformed response, dropping", zap.Error(err))
				continue
			}

			select {
			case out <- msg:
			case <-stop:
				return
			}
		}
	}()
	return out
}

// ParseMessage lexes, parses, and object-maps one raw response/event
// payload, the full decode pipeline as a single entry point for callers
// outside this package.
func ParseMessage(raw []byte) (any, error) {
	nodes, err := parseResponse(string(raw))
	if err != nil {
		return nil, err
	}
	return Map(nodes)
}
