package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is the envelope written to feed subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// Client is one websocket connection of a user.
type Client struct {
	UserID uint
	Role   string
	send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func NewClient(userID uint, role string, buffer int) *Client {
	return &Client{UserID: userID, Role: role, send: make(chan []byte, buffer)}
}

// Messages yields the queued frames; the channel closes after Close.
func (c *Client) Messages() <-chan []byte { return c.send }

// trySend drops the frame when the client is slow or gone.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	hub := c.hub
	c.mu.Unlock()
	if hub != nil {
		hub.unregister(c)
	}
}

// Hub fans events out to every connection of a user.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]map[*Client]struct{}
	now    func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		byUser: make(map[uint]map[*Client]struct{}),
		now:    time.Now,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// Publish sends an event to the user's open connections. Users without a
// connection are skipped; nothing is queued for later.
func (h *Hub) Publish(userID uint, event string, payload interface{}) {
	data, err := json.Marshal(Event{Type: event, Data: payload, At: h.now().UTC()})
	if err != nil {
		return
	}
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byUser {
		n += len(m)
	}
	return n
}
