// hms-sim is a local stand-in for the HMS, the SMS/email gateways, and the
// internal decryption service. It serves a handful of generated appointments
// that fall due inside the pre-call window so a locally running notifier has
// something to pick up.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"teleconsult-notifier/internal/models"
)

type simStore struct {
	mu           sync.Mutex
	appointments map[string]*models.Appointment // keyed by appointment number
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	count := flag.Int("count", 5, "number of generated appointments")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	store := &simStore{appointments: make(map[string]*models.Appointment)}
	for i := 0; i < *count; i++ {
		appt := generateAppointment(i)
		store.appointments[appt.AppointmentNumber] = &appt
		log.Printf("seeded appointment %s for %s starting %s",
			appt.AppointmentNumber, appt.PatientName, appt.AppointmentTime.Format(time.RFC3339))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /appointments/pending-video-calls", store.listPending)
	mux.HandleFunc("GET /appointments/{number}", store.getAppointment)
	mux.HandleFunc("PUT /appointments/{id}/status", store.updateStatus)
	mux.HandleFunc("PUT /appointments/{number}/session-status", store.updateSessionStatus)
	mux.HandleFunc("POST /gateway/sms", logAndAccept("sms"))
	mux.HandleFunc("POST /gateway/email", logAndAccept("email"))
	mux.HandleFunc("POST /decrypt", decrypt)

	log.Printf("hms-sim listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("hms-sim failed: %v", err)
	}
}

func generateAppointment(i int) models.Appointment {
	// Spread start times so some are due now and some only on later cycles.
	start := time.Now().Add(time.Duration(5+10*i) * time.Minute)
	return models.Appointment{
		AppointmentID:     uuid.NewString(),
		AppointmentNumber: fmt.Sprintf("APT%06d", gofakeit.Number(100000, 999999)),
		AppointmentTime:   start,
		PatientID:         uuid.NewString(),
		PatientName:       gofakeit.Name(),
		PatientPhone:      "+91" + gofakeit.Numerify("##########"),
		PatientEmail:      gofakeit.Email(),
		DoctorID:          uuid.NewString(),
		DoctorName:        "Dr. " + gofakeit.LastName(),
		Status:            models.StatusConfirmed,
	}
}

func (s *simStore) listPending(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := make([]models.Appointment, 0, len(s.appointments))
	for _, appt := range s.appointments {
		if appt.Status != models.StatusVideoURLSent {
			pending = append(pending, *appt)
		}
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *simStore) getAppointment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[r.PathValue("number")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "appointment not found"})
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *simStore) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, appt := range s.appointments {
		if appt.AppointmentID == id {
			appt.Status = body.Status
			log.Printf("appointment %s status -> %s", appt.AppointmentNumber, body.Status)
			writeJSON(w, http.StatusOK, appt)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "appointment not found"})
}

func (s *simStore) updateSessionStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionToken string `json:"session_token"`
		Status       string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	log.Printf("session for appointment %s -> %s", r.PathValue("number"), body.Status)
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

func logAndAccept(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		log.Printf("%s gateway accepted notification for appointment %v", channel, payload["appointment_id"])
		writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
	}
}

// decrypt mimics the internal decryption service: base64 when the input
// decodes cleanly, identity otherwise.
func decrypt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key  string `json:"key"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	plain := body.Text
	if decoded, err := base64.StdEncoding.DecodeString(body.Text); err == nil {
		plain = strings.TrimSpace(string(decoded))
	}
	writeJSON(w, http.StatusOK, map[string]string{"decryptedText": plain})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
