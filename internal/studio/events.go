package studio

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

const writeTimeout = 5 * time.Second

// Event is one message pushed to connected workspace clients
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
	At   string `json:"at"`
}

// Hub fans out workspace events to websocket clients. Slow or broken
// clients are dropped rather than blocking the broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  arbor.ILogger
}

// NewHub creates an empty broadcast hub
func NewHub(logger arbor.ILogger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// Register adds a client connection to the hub
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.logger.Debug().Int("clients", len(h.clients)).Msg("Workspace client connected")
}

// Unregister removes and closes a client connection
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast sends an event to every connected client
func (h *Hub) Broadcast(eventType string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	event := Event{
		Type: eventType,
		Data: data,
		At:   time.Now().UTC().Format(time.RFC3339),
	}
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug().Err(err).Msg("Dropping workspace client")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports how many clients are connected
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
