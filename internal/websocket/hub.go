package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rgoodwin/hearth/internal/model"
)

// Message is a real-time event broadcast to all connected clients.
// Created notifications carry the full record so the UI can render them
// without a refetch; read and dismissed events carry just the ID.
type Message struct {
	Type         string              `json:"type"`
	ID           int64               `json:"id,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
}

// NotificationCreated builds the broadcast for a freshly created notification.
func NotificationCreated(n model.Notification) Message {
	return Message{Type: "notification_created", ID: n.ID, Notification: &n}
}

// NotificationRead builds the broadcast for a read notification.
func NotificationRead(id int64) Message {
	return Message{Type: "notification_read", ID: id}
}

// NotificationDismissed builds the broadcast for a dismissed notification.
func NotificationDismissed(id int64) Message {
	return Message{Type: "notification_dismissed", ID: id}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
