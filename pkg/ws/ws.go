// Package ws streams server events to WebSocket subscribers using
// gorilla/websocket. Each client subscribes to exactly one topic (a parcel
// tracking id) and receives every message published to it.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	router.Get("/track/{tracking_id}/live", "track.live", func(w, r) {
//	    ws.Upgrade(w, r, hub, chi.URLParam(r, "tracking_id"))
//	})
//
//	hub.Publish("TRK-1", payload)
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client represents a single connected WebSocket subscriber.
type Client struct {
	hub   *Hub
	topic string
	conn  *websocket.Conn
	send  chan []byte
}

// readPump only services control frames; subscribers do not send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "topic", c.topic, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type publication struct {
	topic string
	data  []byte
}

// Hub maintains active subscribers grouped by topic.
type Hub struct {
	topics     map[string]map[*Client]bool
	publish    chan publication
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{}
}

// NewHub creates a Hub. Call hub.Run(ctx) in a goroutine at startup.
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		publish:    make(chan publication, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop. It returns when ctx is cancelled, closing every
// subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			subs := h.topics[client.topic]
			if subs == nil {
				subs = make(map[*Client]bool)
				h.topics[client.topic] = subs
			}
			subs[client] = true
			logger.Debug("ws: subscriber connected", "topic", client.topic, "total", len(subs))

		case client := <-h.unregister:
			h.drop(client)

		case p := <-h.publish:
			for client := range h.topics[p.topic] {
				select {
				case client.send <- p.data:
				default:
					h.drop(client)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, subs := range h.topics {
				n += len(subs)
			}
			reply <- n

		case <-ctx.Done():
			for _, subs := range h.topics {
				for client := range subs {
					close(client.send)
				}
			}
			h.topics = make(map[string]map[*Client]bool)
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	subs, ok := h.topics[client.topic]
	if !ok || !subs[client] {
		return
	}
	delete(subs, client)
	close(client.send)
	if len(subs) == 0 {
		delete(h.topics, client.topic)
	}
}

// Publish queues data for every subscriber of topic. It never blocks; when
// the queue is full the message is dropped.
func (h *Hub) Publish(topic string, data []byte) bool {
	select {
	case h.publish <- publication{topic: topic, data: data}:
		return true
	default:
		logger.Warn("ws: publish queue full, message dropped", "topic", topic)
		return false
	}
}

// ClientCount returns the number of connected subscribers, or 0 once the
// hub has stopped.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// ─── Upgrade ─────────────────────────────────────────────────────────────────

// Upgrade upgrades an HTTP connection to a WebSocket and subscribes the
// resulting client to topic.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub, topic string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}
	client := &Client{hub: hub, topic: topic, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
