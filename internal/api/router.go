package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"teleconsult-notifier/internal/config"
	"teleconsult-notifier/internal/events"
	"teleconsult-notifier/internal/logging"
)

func NewRouter(cfg config.Config, h *Handler, hub *events.Hub, logger *logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		api.POST("/sessions/validate", h.ValidateSession)

		decrypt := api.Group("/decrypt", CORSMiddleware(cfg.CORS.AllowedOrigins))
		decrypt.POST("", h.Decrypt)
		decrypt.OPTIONS("", func(c *gin.Context) {}) // preflight answered by middleware

		api.GET("/notifications", h.GetNotifications)

		if hub != nil {
			api.GET("/ws", StreamEvents(hub, logger))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
