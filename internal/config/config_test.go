package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HMS_API_BASE_URL", "https://hms.example.com/api")
	t.Setenv("FRONTEND_URL", "https://consult.example.com")
	t.Setenv("SMS_API_URL", "https://sms.example.com/send")
	t.Setenv("EMAIL_API_URL", "https://email.example.com/send")
	t.Setenv("DECRYPT_API_URL", "https://decrypt.internal/api")
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, cfg.Scheduler.PreCallWindow)
		assert.Equal(t, 5*time.Minute, cfg.Scheduler.PollInterval)
		assert.Equal(t, 48*time.Hour, cfg.Dedupe.TTL)
		assert.Equal(t, ":8080", cfg.API.Port)
		assert.Equal(t, "/api/v1", cfg.API.BasePath)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("Missing Required", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HMS_API_BASE_URL", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HMS_API_BASE_URL")
	})

	t.Run("Origins Are Trimmed", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("Window Overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PRE_CALL_TIME_MINUTES", "30")
		t.Setenv("FETCH_INTERVAL_MINUTES", "2")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, cfg.Scheduler.PreCallWindow)
		assert.Equal(t, 2*time.Minute, cfg.Scheduler.PollInterval)
	})
}
