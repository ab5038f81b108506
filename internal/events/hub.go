package events

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/models"
)

const maxConnections = 50

// Hub broadcasts dispatch events to connected websocket monitors.
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]bool
	logger      *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// AddConnection registers a monitor connection.
func (h *Hub) AddConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.connections) >= maxConnections {
		h.logger.Warnf("Max monitor connections reached, rejecting new connection")
		_ = conn.Close()
		return
	}
	h.connections[conn] = true
	h.logger.Infof("Monitor connected (total: %d)", len(h.connections))
}

// RemoveConnection drops a monitor connection.
func (h *Hub) RemoveConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		h.logger.Infof("Monitor disconnected (remaining: %d)", len(h.connections))
	}
}

// NotificationDispatched broadcasts the event to every monitor; connections
// that fail to take the write are dropped.
func (h *Hub) NotificationDispatched(_ context.Context, event models.DispatchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Errorf("Monitor write failed, dropping connection: %v", err)
			_ = conn.Close()
			delete(h.connections, conn)
		}
	}
}
