package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"teleconsult-notifier/internal/logging"
)

func RequestLoggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		logger.Infof("Request: %s %s, Status: %d, Latency: %v", method, path, status, latency)
	}
}

// CORSMiddleware echoes the caller's Origin when it is allow-listed and
// falls back to the first configured origin otherwise. Preflight requests
// short-circuit with a 200 and a 24-hour cache.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	fallback := allowedOrigins[0]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !allowed[origin] {
			origin = fallback
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
