package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/metrics"
	"github.com/stemsi/quizboard-backend/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// NewUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Hub fans scoreboard messages out to every connected subscriber on this
// instance. It satisfies service.ScoreNotifier.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	closed     bool
	sendBuffer int
	metrics    metrics.Recorder
	log        zerolog.Logger
}

// NewHub creates a Hub. sendBuffer bounds the per-subscriber queue.
func NewHub(sendBuffer int, rec metrics.Recorder, log zerolog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		sendBuffer: sendBuffer,
		metrics:    rec,
		log:        log.With().Str("component", "ws_hub").Logger(),
	}
}

// Client is one subscriber connection. Connected until its transport closes.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Register adds conn as a subscriber. The caller must then call Run.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	c := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	if err := h.add(c); err != nil {
		return nil, err
	}
	h.log.Debug().Str("client_id", c.ID).Msg("Subscriber connected")
	return c, nil
}

func (h *Hub) add(c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return fmt.Errorf("hub closed")
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
	return nil
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.metrics.SetSubscribers(n)
		h.log.Debug().Str("client_id", c.ID).Msg("Subscriber disconnected")
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes one message and queues it for every subscriber.
// Subscribers whose queue is full miss the message.
func (h *Hub) Broadcast(event Event, data interface{}) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	delivered, dropped := 0, 0
	h.mu.RLock()
	for c := range h.clients {
		if c.enqueue(payload) {
			delivered++
		} else {
			dropped++
		}
	}
	h.mu.RUnlock()

	h.metrics.RecordBroadcast(delivered, dropped)
	if dropped > 0 {
		h.log.Warn().Str("event", string(event)).Int("dropped", dropped).Msg("Slow subscribers skipped")
	}
	return nil
}

// BroadcastScores pushes the leaderboard to every local subscriber.
func (h *Hub) BroadcastScores(_ context.Context, scores []model.ScoreEntry) error {
	if scores == nil {
		scores = []model.ScoreEntry{}
	}
	return h.Broadcast(EventScoreUpdated, scores)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
	h.metrics.SetSubscribers(0)
}

// Send queues one message for this subscriber only.
func (c *Client) Send(event Event, data interface{}) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	if !c.enqueue(payload) {
		return fmt.Errorf("subscriber %s unavailable", c.ID)
	}
	return nil
}

func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Run pumps messages until the connection closes, then unregisters the client.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
	c.hub.remove(c)
}

// readPump discards inbound frames; it exists to process control frames and
// detect disconnects.
func (c *Client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("client_id", c.ID).Msg("Unexpected close")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}
