// Package poller runs the timer-driven notification loop: it fetches due
// appointments from the HMS, mints a session token, pushes the consultation
// link over SMS and email, and records the occurrence so it is notified at
// most once.
package poller

import (
	"context"
	"time"

	"github.com/google/uuid"
	"teleconsult-notifier/internal/dedupe"
	"teleconsult-notifier/internal/events"
	"teleconsult-notifier/internal/hms"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/models"
	"teleconsult-notifier/internal/notification"
	"teleconsult-notifier/internal/session"
)

// HistoryStore persists dispatch attempts for the audit log.
type HistoryStore interface {
	InsertDispatch(ctx context.Context, rec models.DispatchRecord) error
}

// OpsAlerter is told when both channels failed for an eligible appointment.
type OpsAlerter interface {
	DualChannelFailure(ctx context.Context, appt models.Appointment, smsErr, emailErr error)
}

// Poller orchestrates one notification cycle at a time. Cycles never
// overlap: the loop is a single goroutine and a cycle runs to completion
// before the next tick is taken.
type Poller struct {
	hms           *hms.Client
	dispatcher    *notification.Dispatcher
	store         dedupe.Store
	logger        *logging.Logger
	frontendURL   string
	preCallWindow time.Duration
	interval      time.Duration

	// optional collaborators, nil-safe
	history HistoryStore
	alerter OpsAlerter
	sinks   []events.Sink

	now func() time.Time
}

type Options struct {
	FrontendURL   string
	PreCallWindow time.Duration
	PollInterval  time.Duration
	History       HistoryStore
	Alerter       OpsAlerter
	Sinks         []events.Sink
}

func New(hmsClient *hms.Client, dispatcher *notification.Dispatcher, store dedupe.Store, logger *logging.Logger, opts Options) *Poller {
	return &Poller{
		hms:           hmsClient,
		dispatcher:    dispatcher,
		store:         store,
		logger:        logger,
		frontendURL:   opts.FrontendURL,
		preCallWindow: opts.PreCallWindow,
		interval:      opts.PollInterval,
		history:       opts.History,
		alerter:       opts.Alerter,
		sinks:         opts.Sinks,
		now:           time.Now,
	}
}

// Run executes cycles on the configured interval until ctx is cancelled.
// The first cycle fires immediately.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Infof("Appointment poller started (interval %s, pre-call window %s)", p.interval, p.preCallWindow)

	p.RunCycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Infof("Appointment poller stopped")
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle fetches candidates and processes them sequentially. A fetch
// failure degrades the cycle to a no-op; a single appointment's failure
// never blocks the rest.
func (p *Poller) RunCycle(ctx context.Context) {
	appointments, err := p.hms.FetchPendingVideoCalls(ctx)
	if err != nil {
		p.logger.Errorf("Fetching appointments from HMS failed: %v", err)
		return
	}
	p.logger.Infof("Fetched %d appointments from HMS", len(appointments))

	for _, appt := range appointments {
		p.processAppointment(ctx, appt)
	}
}

// due reports whether the appointment should be notified this cycle: inside
// the pre-call window, not yet started, and not already flagged upstream.
func (p *Poller) due(appt models.Appointment) bool {
	untilStart := appt.AppointmentTime.Sub(p.now())
	return untilStart <= p.preCallWindow &&
		untilStart > 0 &&
		appt.Status != models.StatusVideoURLSent
}

func (p *Poller) processAppointment(ctx context.Context, appt models.Appointment) {
	key := appt.OccurrenceKey()

	seen, err := p.store.Seen(ctx, key)
	if err != nil {
		p.logger.Errorf("Dedupe lookup failed for %s: %v", key, err)
		return
	}
	if seen {
		return
	}

	if !p.due(appt) {
		return
	}
	p.logger.Infof("Processing appointment: %s", appt.AppointmentNumber)

	token, err := session.GenerateToken(appt.AppointmentNumber)
	if err != nil {
		p.logger.Errorf("Token generation failed for %s: %v", appt.AppointmentNumber, err)
		return
	}
	videoCallURL := session.BuildConsultationURL(p.frontendURL, appt, token)

	result := p.dispatcher.Dispatch(ctx, appt, videoCallURL)

	if !result.Delivered() {
		p.logger.Errorf("Failed to send notifications for appointment: %s", appt.AppointmentNumber)
		if p.alerter != nil {
			p.alerter.DualChannelFailure(ctx, appt, result.SMS.Err, result.Email.Err)
		}
		p.record(ctx, appt, result)
		// Not marked: the appointment stays eligible for the next cycle.
		return
	}

	// At least one channel reached the patient. Record the occurrence first:
	// not double-notifying wins over a perfectly mirrored upstream status.
	if err := p.store.Mark(ctx, key); err != nil {
		p.logger.Errorf("Dedupe mark failed for %s: %v", key, err)
	}
	if err := p.hms.UpdateAppointmentStatus(ctx, appt.AppointmentID, models.StatusVideoURLSent); err != nil {
		p.logger.Errorf("HMS status update failed for appointment %s: %v", appt.AppointmentID, err)
	} else {
		p.logger.Infof("Appointment %s status updated to %s", appt.AppointmentID, models.StatusVideoURLSent)
	}

	p.logger.Infof("Video call URL sent for appointment: %s", appt.AppointmentNumber)
	p.record(ctx, appt, result)
}

// record writes the history row and fans the outcome out to all sinks.
func (p *Poller) record(ctx context.Context, appt models.Appointment, result notification.Result) {
	status := models.DispatchFailed
	if result.Delivered() {
		status = models.DispatchSent
	}

	rec := models.DispatchRecord{
		ID:                uuid.NewString(),
		AppointmentID:     appt.AppointmentID,
		AppointmentNumber: appt.AppointmentNumber,
		PatientName:       appt.PatientName,
		SMSStatus:         channelStatus(result.SMS),
		EmailStatus:       channelStatus(result.Email),
		Status:            status,
		LastError:         channelError(result),
		CreatedAt:         p.now(),
	}

	if p.history != nil {
		if err := p.history.InsertDispatch(ctx, rec); err != nil {
			p.logger.Errorf("History insert failed for appointment %s: %v", appt.AppointmentNumber, err)
		}
	}

	event := models.DispatchEvent{
		EventID:           rec.ID,
		AppointmentID:     rec.AppointmentID,
		AppointmentNumber: rec.AppointmentNumber,
		PatientName:       rec.PatientName,
		SMSStatus:         rec.SMSStatus,
		EmailStatus:       rec.EmailStatus,
		Status:            rec.Status,
		SentAt:            rec.CreatedAt,
	}
	for _, sink := range p.sinks {
		sink.NotificationDispatched(ctx, event)
	}
}

func channelStatus(r notification.ChannelResult) string {
	if r.OK {
		return models.DispatchSent
	}
	return models.DispatchFailed
}

func channelError(result notification.Result) string {
	switch {
	case result.SMS.Err != nil:
		return result.SMS.Err.Error()
	case result.Email.Err != nil:
		return result.Email.Err.Error()
	default:
		return ""
	}
}
