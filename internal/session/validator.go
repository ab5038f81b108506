package session

import (
	"context"
	"errors"
	"time"

	"teleconsult-notifier/internal/hms"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/models"
)

// Join window around the appointment start: entry opens 15 minutes before
// start and closes 2 hours after. The bounds are deliberately asymmetric.
const (
	maxEarlyTime = 15 * time.Minute
	maxLateTime  = 2 * time.Hour
)

// Validator rejection reasons, mapped 1:1 to HTTP responses by the API layer.
var (
	ErrExpired     = errors.New("session has expired")
	ErrNotFound    = errors.New("appointment not found")
	ErrNotReady    = errors.New("appointment not ready for video call")
	ErrOutOfWindow = errors.New("video call not available at this time")
)

// Validator gates entry into a consultation: it decodes a presented token,
// checks its age, and re-checks the live appointment state with the HMS.
type Validator struct {
	hms    *hms.Client
	logger *logging.Logger
	now    func() time.Time
}

func NewValidator(hmsClient *hms.Client, logger *logging.Logger) *Validator {
	return &Validator{
		hms:    hmsClient,
		logger: logger,
		now:    time.Now,
	}
}

// Validate accepts or rejects a presented session token. On acceptance the
// appointment projection is returned and a "validated" session status is
// pushed to the HMS best-effort; a failed push never revokes the decision.
func (v *Validator) Validate(ctx context.Context, token string) (models.Appointment, error) {
	claims, err := DecodeToken(token)
	if err != nil {
		return models.Appointment{}, err
	}

	now := v.now()
	if now.Sub(claims.IssuedAt) > TokenTTL {
		return models.Appointment{}, ErrExpired
	}

	appt, err := v.hms.FetchAppointment(ctx, claims.AppointmentNumber)
	if err != nil {
		if errors.Is(err, hms.ErrAppointmentNotFound) {
			return models.Appointment{}, ErrNotFound
		}
		v.logger.Errorf("Appointment lookup failed for %s: %v", claims.AppointmentNumber, err)
		return models.Appointment{}, ErrNotFound
	}

	if appt.Status != models.StatusVideoURLSent && appt.Status != models.StatusConfirmed {
		return models.Appointment{}, ErrNotReady
	}

	timeUntilAppointment := appt.AppointmentTime.Sub(now)
	if timeUntilAppointment > maxEarlyTime || timeUntilAppointment < -maxLateTime {
		return models.Appointment{}, ErrOutOfWindow
	}

	if err := v.hms.UpdateSessionStatus(ctx, claims.AppointmentNumber, token, models.StatusValidated); err != nil {
		v.logger.Warnf("Session status update failed for %s: %v", claims.AppointmentNumber, err)
	}

	return appt, nil
}
