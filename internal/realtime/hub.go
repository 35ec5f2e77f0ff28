// Package realtime pushes notifications and direct messages to connected users over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nikhil/teamtasks/internal/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the peer
	maxMessageSize = 512

	sendBuffer = 256
)

// Frame types
const (
	FrameNotification = "notification"
	FrameMessage      = "message"
)

// Frame is the envelope of every server-to-client message
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub keeps the live connections of every user
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	users map[int64]map[*Client]bool
	mu    sync.RWMutex
	done  chan struct{}
	log   *logger.Logger
}

// Client is one websocket connection of a user
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID int64
}

// NewHub creates a Hub. Run must be started before clients register.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		users:      make(map[int64]map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// NewClient wraps conn for userID
func (h *Hub) NewClient(conn *websocket.Conn, userID int64) *Client {
	return &Client{Hub: h, Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
}

// Run serves register and unregister requests until ctx is done, then closes every connection
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.users[client.UserID] == nil {
				h.users[client.UserID] = make(map[*Client]bool)
			}
			h.users[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, clients := range h.users {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// Attach registers client. It returns false once the hub has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.users[client.UserID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.users, client.UserID)
	}
	close(client.Send)
}

// IsUserConnected reports whether userID has at least one live connection
func (h *Hub) IsUserConnected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// SendToUser queues a frame on every connection of userID. It returns false when none accepted it.
// Slow connections whose buffer is full skip the frame.
func (h *Hub) SendToUser(userID int64, frameType string, data interface{}) bool {
	if h == nil {
		return false
	}
	message, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		h.log.Error("Failed to encode websocket frame", "type", frameType, "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for client := range h.users[userID] {
		select {
		case client.Send <- message:
			delivered = true
		default:
			h.log.Warn("Dropping websocket frame for slow client", "user_id", userID, "type", frameType)
		}
	}
	return delivered
}

// ReadPump drains the connection so pongs and close frames are processed. Client frames are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.detach(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("Websocket closed unexpectedly", "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// WritePump pumps frames from the hub to the connection and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
