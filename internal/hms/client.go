package hms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"teleconsult-notifier/internal/models"
)

// Bounded timeouts per call, no internal retries; a slow HMS degrades the
// calling operation, never blocks it indefinitely.
const (
	listTimeout   = 10 * time.Second
	singleTimeout = 5 * time.Second
	writeTimeout  = 10 * time.Second
)

// ErrAppointmentNotFound is returned when the HMS has no record for the
// requested appointment number.
var ErrAppointmentNotFound = errors.New("appointment not found")

// Client talks to the hospital management system, the system of record
// for appointments.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// FetchPendingVideoCalls returns the candidate appointments awaiting a
// video-call notification.
func (c *Client) FetchPendingVideoCalls(ctx context.Context) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/appointments/pending-video-calls", nil)
	if err != nil {
		return nil, fmt.Errorf("build pending-video-calls request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pending video calls: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch pending video calls: HMS returned %d", resp.StatusCode)
	}

	var appointments []models.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appointments); err != nil {
		return nil, fmt.Errorf("decode pending video calls: %w", err)
	}
	return appointments, nil
}

// FetchAppointment returns a single appointment projection by number.
func (c *Client) FetchAppointment(ctx context.Context, appointmentNumber string) (models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/appointments/%s", c.baseURL, appointmentNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("build appointment request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("fetch appointment %s: %w", appointmentNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Appointment{}, ErrAppointmentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return models.Appointment{}, fmt.Errorf("fetch appointment %s: HMS returned %d", appointmentNumber, resp.StatusCode)
	}

	var appt models.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appt); err != nil {
		return models.Appointment{}, fmt.Errorf("decode appointment %s: %w", appointmentNumber, err)
	}
	return appt, nil
}

// UpdateAppointmentStatus requests a lifecycle transition for an appointment.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, appointmentID, status string) error {
	body := map[string]string{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	url := fmt.Sprintf("%s/appointments/%s/status", c.baseURL, appointmentID)
	return c.put(ctx, url, body)
}

// UpdateSessionStatus records a session token state transition against the
// appointment, keyed by appointment number.
func (c *Client) UpdateSessionStatus(ctx context.Context, appointmentNumber, sessionToken, status string) error {
	body := map[string]string{
		"session_token": sessionToken,
		"status":        status,
		"updated_at":    time.Now().UTC().Format(time.RFC3339),
	}
	url := fmt.Sprintf("%s/appointments/%s/session-status", c.baseURL, appointmentNumber)
	return c.put(ctx, url, body)
}

func (c *Client) put(ctx context.Context, url string, body map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal HMS update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build HMS update request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HMS update %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HMS update %s: status %d: %s", url, resp.StatusCode, msg)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}
