// Package realtime relays event bus documents to websocket clients, replacing
// per-collection polling with live feeds.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/user"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the HTTP layer
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is the wire envelope for one bus event.
type Frame struct {
	Topic  string      `json:"topic"`
	Action string      `json:"action"`
	Doc    interface{} `json:"doc"`
}

type Hub struct {
	bus    *core.Bus
	logger core.Logger

	mux     sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(bus *core.Bus, logger core.Logger) *Hub {
	return &Hub{
		bus:     bus,
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// Client is one live websocket connection with its bus subscription.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	sub    *core.Subscription
	send   chan []byte
	userID string
	once   sync.Once
}

// ServeClient subscribes conn to topics plus the connecting account's own
// feed, then pumps events until the peer goes away. Blocks until done.
func (h *Hub) ServeClient(conn *websocket.Conn, userID string, topics []string) {
	topics = append(topics, user.AccountTopic(userID))
	client := &Client{
		hub:    h,
		conn:   conn,
		sub:    h.bus.Subscribe(topics...),
		send:   make(chan []byte, 256),
		userID: userID,
	}

	h.mux.Lock()
	h.clients[client] = struct{}{}
	h.mux.Unlock()

	go client.relayPump()
	go client.writePump()
	client.readPump()
}

// ClientCount reports live connections; surfaced on the health endpoint.
func (h *Hub) ClientCount() int {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mux.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mux.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		c.sub.Unsubscribe()
		_ = c.conn.Close()

		c.hub.mux.Lock()
		delete(c.hub.clients, c)
		c.hub.mux.Unlock()
	})
}

// relayPump forwards bus events onto the connection's send channel. A slow
// client is disconnected rather than allowed to block the bus.
func (c *Client) relayPump() {
	for evt := range c.sub.C {
		data, err := json.Marshal(Frame{Topic: evt.Topic, Action: evt.Action, Doc: evt.Doc})
		if err != nil {
			c.hub.logger.Error("ws: marshaling event", err)
			continue
		}
		select {
		case c.send <- data:
		default:
			c.close()
			return
		}
	}
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(msg)

			// flush queued messages in the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
