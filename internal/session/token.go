package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"teleconsult-notifier/internal/models"
)

// TokenTTL is how long a session token stays valid after issuance.
const TokenTTL = 24 * time.Hour

const tokenDelimiter = "_"

// ErrMalformedToken is returned when a presented token cannot be decoded.
var ErrMalformedToken = errors.New("invalid session token format")

// Claims are the fields carried inside a session token.
type Claims struct {
	AppointmentNumber string
	IssuedAt          time.Time
	Nonce             string
}

// GenerateToken mints a session token for an appointment:
// <appointmentNumber>_<epochMillis>_<16 hex chars of random nonce>.
// Collision resistance across concurrent calls comes from the nonce,
// not from the timestamp.
func GenerateToken(appointmentNumber string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate token nonce: %w", err)
	}
	return strings.Join([]string{
		appointmentNumber,
		strconv.FormatInt(time.Now().UnixMilli(), 10),
		hex.EncodeToString(nonce),
	}, tokenDelimiter), nil
}

// DecodeToken splits a token back into its claims. Tokens with fewer than
// three segments or a non-numeric timestamp are malformed.
func DecodeToken(token string) (Claims, error) {
	parts := strings.Split(token, tokenDelimiter)
	if len(parts) < 3 {
		return Claims{}, ErrMalformedToken
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Claims{}, ErrMalformedToken
	}
	return Claims{
		AppointmentNumber: parts[0],
		IssuedAt:          time.UnixMilli(millis),
		Nonce:             parts[2],
	}, nil
}

// BuildConsultationURL assembles the patient-facing consultation link.
// The userid falls back to a generated placeholder when the HMS record
// carries no patient ID.
func BuildConsultationURL(frontendURL string, appt models.Appointment, token string) string {
	userID := appt.PatientID
	if userID == "" {
		userID = "user_" + uuid.NewString()
	}

	params := url.Values{}
	params.Set("session_token", token)
	params.Set("app_no", appt.AppointmentNumber)
	params.Set("userid", userID)
	params.Set("username", appt.PatientName)
	params.Set("doctor_name", appt.DoctorName)
	params.Set("appointment_time", appt.AppointmentTime.Format(time.RFC3339))
	params.Set("room_id", appt.AppointmentNumber)
	params.Set("expires_at", time.Now().Add(TokenTTL).UTC().Format(time.RFC3339))

	return frontendURL + "/consultation?" + params.Encode()
}
