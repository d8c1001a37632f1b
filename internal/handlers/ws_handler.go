package handlers

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/studio"
)

// WSHandler upgrades workspace clients onto the event hub
type WSHandler struct {
	hub      *studio.Hub
	logger   arbor.ILogger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler bound to the studio event hub
func NewWSHandler(hub *studio.Hub, logger arbor.ILogger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The studio binds to loopback only; reject anything else.
			CheckOrigin: func(r *http.Request) bool {
				host, _, err := net.SplitHostPort(r.Host)
				if err != nil {
					host = r.Host
				}
				return host == "127.0.0.1" || host == "localhost" || host == "::1"
			},
		},
	}
}

// HandleWebSocket handles GET /ws
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.hub.Register(conn)

	// Drain client frames; the studio only pushes.
	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
