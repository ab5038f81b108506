package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/models"
	"teleconsult-notifier/internal/relay"
	"teleconsult-notifier/internal/session"
)

// DispatchLister reads the recorded dispatch history.
type DispatchLister interface {
	ListRecentDispatches(ctx context.Context, limit, offset int) ([]models.DispatchRecord, error)
}

type Handler struct {
	validator *session.Validator
	relay     *relay.Relay
	history   DispatchLister
	logger    *logging.Logger
}

func NewHandler(validator *session.Validator, rly *relay.Relay, history DispatchLister, logger *logging.Logger) *Handler {
	return &Handler{
		validator: validator,
		relay:     rly,
		history:   history,
		logger:    logger,
	}
}

// ValidateSession gates entry into a consultation. Rejections map 1:1 to a
// 401 with a specific reason; only unexpected faults become a 500.
func (h *Handler) ValidateSession(c *gin.Context) {
	var req struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Session token is required",
		})
		return
	}

	appt, err := h.validator.Validate(c.Request.Context(), req.SessionToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"valid":   false,
			"error":   rejectionReason(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"valid":        true,
		"appointment":  appt,
		"sessionToken": req.SessionToken,
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, session.ErrMalformedToken):
		return "Invalid session token format"
	case errors.Is(err, session.ErrExpired):
		return "Session has expired"
	case errors.Is(err, session.ErrNotFound):
		return "Appointment not found"
	case errors.Is(err, session.ErrNotReady):
		return "Appointment not ready for video call"
	case errors.Is(err, session.ErrOutOfWindow):
		return "Video call not available at this time"
	default:
		return "Session validation failed"
	}
}

// Decrypt relays an opaque ciphertext to the internal decryption service so
// the browser never holds the shared key.
func (h *Handler) Decrypt(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Encoded text is required",
		})
		return
	}

	plaintext, err := h.relay.Decrypt(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Errorf("Decryption error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Decryption failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"decryptedText": plaintext,
	})
}

// GetNotifications returns the recent dispatch history.
func (h *Handler) GetNotifications(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notification history is not configured"})
		return
	}

	records, err := h.history.ListRecentDispatches(c.Request.Context(), 100, 0)
	if err != nil {
		h.logger.Errorf("Get notifications failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}
	c.JSON(http.StatusOK, records)
}
