package models

import "time"

// Appointment lifecycle statuses owned by the HMS. The notifier only ever
// requests the transition to StatusVideoURLSent.
const (
	StatusConfirmed    = "confirmed"
	StatusVideoURLSent = "video_url_sent"
	StatusValidated    = "validated"
)

// Appointment is a read-only projection of the HMS appointment record,
// held only for the duration of one poll cycle or one validation request.
type Appointment struct {
	AppointmentID     string    `json:"appointment_id"`
	AppointmentNumber string    `json:"appointment_number"`
	AppointmentTime   time.Time `json:"appointment_time"`
	PatientID         string    `json:"patient_id,omitempty"`
	PatientName       string    `json:"patient_name"`
	PatientPhone      string    `json:"patient_phone"`
	PatientEmail      string    `json:"patient_email"`
	DoctorID          string    `json:"doctor_id,omitempty"`
	DoctorName        string    `json:"doctor_name"`
	Status            string    `json:"status"`
}

// OccurrenceKey identifies one notifiable occurrence of an appointment.
// It is the dedupe key: the same appointment rescheduled to a new time
// becomes notifiable again.
func (a Appointment) OccurrenceKey() string {
	return a.AppointmentNumber + "_" + a.AppointmentTime.Format(time.RFC3339)
}
