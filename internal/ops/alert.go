// Package ops raises out-of-band alerts to the operations team when the
// notifier cannot reach a patient at all.
package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/models"
	"teleconsult-notifier/internal/utils"
)

// Notifier sends alerts to a Telegram ops channel. It is optional wiring:
// the poller runs without it when no bot token is configured.
type Notifier struct {
	botToken string
	chatID   int64
	limiter  *rate.Limiter
	logger   *logging.Logger
}

func NewNotifier(botToken string, chatID int64, logger *logging.Logger) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		limiter:  rate.NewLimiter(rate.Limit(1), 5),
		logger:   logger,
	}
}

// DualChannelFailure alerts that both SMS and email failed for an eligible
// appointment, which leaves the patient unreached until the next cycle.
func (n *Notifier) DualChannelFailure(ctx context.Context, appt models.Appointment, smsErr, emailErr error) {
	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Warnf("Ops alert rate limit wait aborted: %v", err)
		return
	}

	text := fmt.Sprintf(
		"Notification failure for appointment %s\nPatient: %s\nScheduled: %s\nSMS: %v\nEmail: %v",
		appt.AppointmentNumber,
		appt.PatientName,
		appt.AppointmentTime.Format(time.RFC1123),
		smsErr,
		emailErr,
	)

	err := utils.Retry(n.logger, 3, time.Second, func() error {
		b, err := bot.New(n.botToken)
		if err != nil {
			return fmt.Errorf("init telegram bot: %w", err)
		}
		params := &bot.SendMessageParams{
			ChatID: n.chatID,
			Text:   text,
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("send telegram alert to chat_id %d: %w", n.chatID, err)
		}
		return nil
	})
	if err != nil {
		n.logger.Errorf("Ops alert delivery failed for appointment %s: %v", appt.AppointmentNumber, err)
	}
}
