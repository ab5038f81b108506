package providers

import (
	"context"
	"fmt"
	"net/http"

	"teleconsult-notifier/internal/config"
	"teleconsult-notifier/internal/models"
)

type smsPayload struct {
	PhoneNumber      string `json:"phone_number"`
	Message          string `json:"message"`
	AppointmentID    string `json:"appointment_id"`
	NotificationType string `json:"notification_type"`
}

// SendSMS delivers the consultation link over the SMS gateway.
func SendSMS(ctx context.Context, client *http.Client, cfg config.Config, appt models.Appointment, videoCallURL string) error {
	if cfg.SMS.APIURL == "" {
		return fmt.Errorf("missing SMS configuration: SMS_API_URL is empty")
	}
	if appt.PatientPhone == "" {
		return fmt.Errorf("no phone number on appointment %s", appt.AppointmentNumber)
	}

	message := fmt.Sprintf(
		"Dear %s, your video consultation with %s is scheduled for %s. Click here to join: %s - %s",
		appt.PatientName,
		appt.DoctorName,
		appt.AppointmentTime.Format("02 Jan 2006, 3:04 PM"),
		videoCallURL,
		cfg.Hospital.Name,
	)

	payload := smsPayload{
		PhoneNumber:      appt.PatientPhone,
		Message:          message,
		AppointmentID:    appt.AppointmentID,
		NotificationType: notificationType,
	}
	if err := postJSON(ctx, client, cfg.SMS.APIURL, cfg.SMS.APIKey, payload); err != nil {
		return fmt.Errorf("send SMS to %s: %w", appt.PatientPhone, err)
	}
	return nil
}
