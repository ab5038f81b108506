package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"teleconsult-notifier/internal/events"
	"teleconsult-notifier/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Monitor clients come from operator tooling, not browsers; origin
	// policy is enforced at the network layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamEvents upgrades the connection and registers it with the hub for
// live dispatch events. The read loop only watches for the client going away.
func StreamEvents(hub *events.Hub, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		hub.AddConnection(conn)
		defer func() {
			hub.RemoveConnection(conn)
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
