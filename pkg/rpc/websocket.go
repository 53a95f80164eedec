package rpc

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 90 * time.Second
	wsSendBuffer   = 64

	chanOrders = "orders"
	chanTrades = "trades"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub tracks connected operator clients and fans order mutations and
// settled trades out to those that asked for them.
type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub(log *zap.Logger) *Hub {
	return &Hub{log: log, clients: make(map[*wsClient]struct{})}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("rpc: ws client connected", zap.String("client_id", c.id))
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if present {
		h.log.Info("rpc: ws client disconnected", zap.String("client_id", c.id))
	}
}

// PublishOrder delivers ev to every client subscribed to order events.
func (h *Hub) PublishOrder(ev OrderEvent) {
	h.publish(ev, func(c *wsClient) bool { return c.wantsOrders() })
}

// PublishTrade delivers ev to every client subscribed to trade events.
func (h *Hub) PublishTrade(ev TradeEvent) {
	h.publish(ev, func(c *wsClient) bool { return c.wantsTrades() })
}

// publish marshals ev once and hands it to every interested client. A
// client too slow to drain its send buffer is dropped rather than
// allowed to stall the publisher.
func (h *Hub) publish(ev any, interested func(*wsClient) bool) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("rpc: ws event marshal failed", zap.Error(err))
		return
	}

	var stalled []*wsClient
	h.mu.Lock()
	for c := range h.clients {
		if !interested(c) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stalled {
		h.drop(c)
	}
}

// wsClient is one upgraded operator connection, tagged with an id so log
// lines from concurrent clients stay attributable. Subscription state is
// two flags, one per event stream this surface publishes.
type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	orders bool
	trades bool
}

func (c *wsClient) wantsOrders() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orders
}

func (c *wsClient) wantsTrades() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trades
}

// applySubscription flips the flag named by channel; unknown channel
// names are ignored rather than erroring, so future streams can be added
// without breaking old clients.
func (c *wsClient) applySubscription(channel string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch channel {
	case chanOrders:
		c.orders = on
	case chanTrades:
		c.trades = on
	}
}

// readLoop consumes subscribe/unsubscribe requests until the peer goes
// away, then unregisters the client.
func (c *wsClient) readLoop() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req WSSubscribeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}
		for _, ch := range req.Channels {
			c.applySubscription(ch, req.Op == "subscribe")
		}
	}
}

// writeLoop drains the send buffer onto the socket and keeps the
// connection alive with periodic pings.
func (c *wsClient) writeLoop() {
	ping := time.NewTicker(wsPingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("rpc: ws upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		id:   uuid.NewString(),
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}
	s.hub.add(c)

	go c.writeLoop()
	go c.readLoop()
}
