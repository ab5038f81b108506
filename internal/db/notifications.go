package db

import (
	"context"
	"fmt"

	"teleconsult-notifier/internal/models"
)

// InsertDispatch records one notification attempt against an appointment.
func (d *DB) InsertDispatch(ctx context.Context, rec models.DispatchRecord) error {
	query := `
        INSERT INTO notifications (
            id, appointment_id, appointment_number, patient_name,
            sms_status, email_status, status, last_error, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := d.Pool.Exec(ctx, query,
		rec.ID, rec.AppointmentID, rec.AppointmentNumber, rec.PatientName,
		rec.SMSStatus, rec.EmailStatus, rec.Status, rec.LastError, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert dispatch record: %w", err)
	}
	return nil
}

// ListRecentDispatches returns the newest dispatch records first.
func (d *DB) ListRecentDispatches(ctx context.Context, limit, offset int) ([]models.DispatchRecord, error) {
	query := `
        SELECT id, appointment_id, appointment_number, patient_name,
               sms_status, email_status, status, last_error, created_at
        FROM notifications
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`
	rows, err := d.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatch records: %w", err)
	}
	defer rows.Close()

	var records []models.DispatchRecord
	for rows.Next() {
		var rec models.DispatchRecord
		err := rows.Scan(
			&rec.ID, &rec.AppointmentID, &rec.AppointmentNumber, &rec.PatientName,
			&rec.SMSStatus, &rec.EmailStatus, &rec.Status, &rec.LastError, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispatch record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}
