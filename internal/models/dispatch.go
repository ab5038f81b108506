package models

import "time"

// Dispatch outcome statuses recorded per notification attempt.
const (
	DispatchSent   = "sent"
	DispatchFailed = "failed"
)

// DispatchRecord is one row of the notification history log: a single
// attempt to reach a patient over both channels for one appointment.
type DispatchRecord struct {
	ID                string    `json:"id"`
	AppointmentID     string    `json:"appointment_id"`
	AppointmentNumber string    `json:"appointment_number"`
	PatientName       string    `json:"patient_name"`
	SMSStatus         string    `json:"sms_status"`
	EmailStatus       string    `json:"email_status"`
	Status            string    `json:"status"`
	LastError         string    `json:"last_error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// DispatchEvent is the wire form of a dispatch outcome fanned out to the
// Kafka audit stream and to connected websocket monitors.
type DispatchEvent struct {
	EventID           string    `json:"event_id"`
	AppointmentID     string    `json:"appointment_id"`
	AppointmentNumber string    `json:"appointment_number"`
	PatientName       string    `json:"patient_name"`
	SMSStatus         string    `json:"sms_status"`
	EmailStatus       string    `json:"email_status"`
	Status            string    `json:"status"`
	SentAt            time.Time `json:"sent_at"`
}
