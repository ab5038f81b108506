package providers

import (
	"context"
	"fmt"
	"net/http"

	"teleconsult-notifier/internal/config"
	"teleconsult-notifier/internal/models"
)

type emailPayload struct {
	Email            string `json:"email"`
	Subject          string `json:"subject"`
	HTMLContent      string `json:"html_content"`
	AppointmentID    string `json:"appointment_id"`
	NotificationType string `json:"notification_type"`
}

// SendEmail delivers the consultation link over the email gateway.
func SendEmail(ctx context.Context, client *http.Client, cfg config.Config, appt models.Appointment, videoCallURL string) error {
	if cfg.Email.APIURL == "" {
		return fmt.Errorf("missing Email configuration: EMAIL_API_URL is empty")
	}
	if appt.PatientEmail == "" {
		return fmt.Errorf("no email address on appointment %s", appt.AppointmentNumber)
	}

	payload := emailPayload{
		Email:            appt.PatientEmail,
		Subject:          fmt.Sprintf("Your Video Consultation Link - %s", cfg.Hospital.Name),
		HTMLContent:      emailContent(cfg.Hospital.Name, appt, videoCallURL),
		AppointmentID:    appt.AppointmentID,
		NotificationType: notificationType,
	}
	if err := postJSON(ctx, client, cfg.Email.APIURL, cfg.Email.APIKey, payload); err != nil {
		return fmt.Errorf("send email to %s: %w", appt.PatientEmail, err)
	}
	return nil
}

// emailContent renders the HTML notification body.
func emailContent(hospitalName string, appt models.Appointment, videoCallURL string) string {
	formattedTime := appt.AppointmentTime.Format("Monday, 02 January 2006, 3:04 PM")

	return fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
      <div style="background: linear-gradient(135deg, #EC4899, #8B5CF6); padding: 20px; text-align: center;">
        <h1 style="color: white; margin: 0;">%s</h1>
        <p style="color: white; margin: 10px 0 0 0;">Video Consultation</p>
      </div>

      <div style="padding: 30px; background: #f9f9f9;">
        <h2 style="color: #333;">Your Video Consultation is Ready</h2>

        <div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0;">
          <h3 style="color: #8B5CF6; margin-top: 0;">Appointment Details</h3>
          <p><strong>Patient:</strong> %s</p>
          <p><strong>Doctor:</strong> %s</p>
          <p><strong>Date &amp; Time:</strong> %s</p>
          <p><strong>Appointment ID:</strong> %s</p>
        </div>

        <div style="text-align: center; margin: 30px 0;">
          <a href="%s"
             style="background: #8B5CF6; color: white; padding: 15px 30px; text-decoration: none; border-radius: 6px; font-weight: bold; display: inline-block;">
            Join Video Consultation
          </a>
        </div>

        <div style="background: #fff3cd; padding: 15px; border-radius: 6px; border-left: 4px solid #ffc107;">
          <h4 style="margin-top: 0; color: #856404;">Important Instructions:</h4>
          <ul style="margin: 0; padding-left: 20px;">
            <li>Click the button above 5 minutes before your appointment time</li>
            <li>Ensure you have a stable internet connection</li>
            <li>Allow camera and microphone access when prompted</li>
            <li>This link is valid for 24 hours only</li>
          </ul>
        </div>

        <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 14px; color: #666;">
          <p>If you have any issues, please contact our support team.</p>
          <p>Thank you for choosing %s.</p>
        </div>
      </div>
    </div>
  `, hospitalName, appt.PatientName, appt.DoctorName, formattedTime, appt.AppointmentNumber, videoCallURL, hospitalName)
}
