package notification

import (
	"context"
	"net/http"

	"teleconsult-notifier/internal/config"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/models"
	"teleconsult-notifier/internal/providers"
)

// ChannelResult is the outcome of one delivery channel for one appointment.
type ChannelResult struct {
	OK  bool
	Err error
}

// Result carries both channel outcomes. The caller decides overall success;
// the product policy is "the patient received it via at least one channel".
type Result struct {
	SMS   ChannelResult
	Email ChannelResult
}

// Delivered reports whether at least one channel succeeded.
func (r Result) Delivered() bool {
	return r.SMS.OK || r.Email.OK
}

// Dispatcher sends the consultation link over SMS and email. Channels are
// independent: one failing never short-circuits the other, and neither is
// retried within a cycle.
type Dispatcher struct {
	cfg    config.Config
	client *http.Client
	logger *logging.Logger
}

func NewDispatcher(cfg config.Config, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
	}
}

// Dispatch fires both channels for the appointment and reports per-channel
// results. Failures are logged here and surfaced to the caller, never thrown.
func (d *Dispatcher) Dispatch(ctx context.Context, appt models.Appointment, videoCallURL string) Result {
	var res Result

	if err := providers.SendSMS(ctx, d.client, d.cfg, appt, videoCallURL); err != nil {
		d.logger.Errorf("SMS dispatch failed for appointment %s: %v", appt.AppointmentNumber, err)
		res.SMS = ChannelResult{Err: err}
	} else {
		d.logger.Infof("SMS sent to %s for appointment %s", appt.PatientPhone, appt.AppointmentNumber)
		res.SMS = ChannelResult{OK: true}
	}

	if err := providers.SendEmail(ctx, d.client, d.cfg, appt, videoCallURL); err != nil {
		d.logger.Errorf("Email dispatch failed for appointment %s: %v", appt.AppointmentNumber, err)
		res.Email = ChannelResult{Err: err}
	} else {
		d.logger.Infof("Email sent to %s for appointment %s", appt.PatientEmail, appt.AppointmentNumber)
		res.Email = ChannelResult{OK: true}
	}

	return res
}
