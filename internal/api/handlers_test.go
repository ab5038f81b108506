package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult-notifier/internal/config"
	"teleconsult-notifier/internal/events"
	"teleconsult-notifier/internal/hms"
	"teleconsult-notifier/internal/models"
	"teleconsult-notifier/internal/relay"
	"teleconsult-notifier/internal/session"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type routerOptions struct {
	hmsURL     string
	decryptURL string
}

func newTestRouter(t *testing.T, opts routerOptions) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg config.Config
	cfg.API.BasePath = "/api/v1"
	cfg.CORS.AllowedOrigins = []string{"https://consult.example.com", "http://localhost:3000"}

	logger := testLogger()
	validator := session.NewValidator(hms.NewClient(opts.hmsURL, "k"), logger)
	rly := relay.New(opts.decryptURL, "shared-secret", logger)
	handler := NewHandler(validator, rly, nil, logger)
	return NewRouter(cfg, handler, events.NewHub(logger), logger)
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestValidateSessionEndpoint(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		rr := doJSON(r, http.MethodPost, "/api/v1/sessions/validate", `{}`, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["success"])
		assert.Equal(t, "Session token is required", resp["error"])
	})

	t.Run("Malformed Token Rejected With Reason", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		rr := doJSON(r, http.MethodPost, "/api/v1/sessions/validate", `{"sessionToken":"nope"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["valid"])
		assert.Equal(t, "Invalid session token format", resp["error"])
	})

	t.Run("Expired Token", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		stale := fmt.Sprintf("APT1_%d_deadbeefdeadbeef", time.Now().Add(-25*time.Hour).UnixMilli())
		rr := doJSON(r, http.MethodPost, "/api/v1/sessions/validate", `{"sessionToken":"`+stale+`"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Session has expired")
	})

	t.Run("Valid Token Returns Appointment", func(t *testing.T) {
		appt := models.Appointment{
			AppointmentNumber: "APT1",
			AppointmentTime:   time.Now().Add(10 * time.Minute),
			PatientName:       "Asha Rao",
			Status:            models.StatusVideoURLSent,
		}
		mux := http.NewServeMux()
		mux.HandleFunc("GET /appointments/APT1", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(appt)
		})
		mux.HandleFunc("PUT /appointments/{number}/session-status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		hmsSrv := httptest.NewServer(mux)
		t.Cleanup(hmsSrv.Close)

		r := newTestRouter(t, routerOptions{hmsURL: hmsSrv.URL})
		token := fmt.Sprintf("APT1_%d_deadbeefdeadbeef", time.Now().UnixMilli())
		rr := doJSON(r, http.MethodPost, "/api/v1/sessions/validate", `{"sessionToken":"`+token+`"}`, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			Success     bool               `json:"success"`
			Valid       bool               `json:"valid"`
			Appointment models.Appointment `json:"appointment"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, resp.Valid)
		assert.Equal(t, "Asha Rao", resp.Appointment.PatientName)
	})
}

func TestDecryptEndpoint(t *testing.T) {
	t.Run("Missing Text", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		rr := doJSON(r, http.MethodPost, "/api/v1/decrypt", `{}`, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["success"])
		assert.Equal(t, "Encoded text is required", resp["error"])
	})

	t.Run("Success", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"decryptedText": "APT1"})
		}))
		t.Cleanup(upstream.Close)

		r := newTestRouter(t, routerOptions{decryptURL: upstream.URL})
		rr := doJSON(r, http.MethodPost, "/api/v1/decrypt", `{"text":"abc"}`, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "APT1", resp["decryptedText"])
	})

	t.Run("Upstream Failure", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		t.Cleanup(upstream.Close)

		r := newTestRouter(t, routerOptions{decryptURL: upstream.URL})
		rr := doJSON(r, http.MethodPost, "/api/v1/decrypt", `{"text":"abc"}`, nil)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Decryption failed", resp["error"])
		assert.NotContains(t, rr.Body.String(), "shared-secret")
	})
}

func TestCORS(t *testing.T) {
	t.Run("Echoes Allow-Listed Origin", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		rr := doJSON(r, http.MethodPost, "/api/v1/decrypt", `{}`, map[string]string{
			"Origin": "http://localhost:3000",
		})
		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Falls Back To Default Origin", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		rr := doJSON(r, http.MethodPost, "/api/v1/decrypt", `{}`, map[string]string{
			"Origin": "https://evil.example.com",
		})
		assert.Equal(t, "https://consult.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight Short-Circuits", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		rr := doJSON(r, http.MethodOptions, "/api/v1/decrypt", "", map[string]string{
			"Origin": "http://localhost:3000",
		})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "86400", rr.Header().Get("Access-Control-Max-Age"))
		assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestGetNotifications(t *testing.T) {
	t.Run("History Not Configured", func(t *testing.T) {
		r := newTestRouter(t, routerOptions{})
		rr := doJSON(r, http.MethodGet, "/api/v1/notifications", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
