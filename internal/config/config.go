package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	HMS struct {
		BaseURL string
		APIKey  string
	}
	Frontend struct {
		BaseURL string
	}
	SMS struct {
		APIURL string
		APIKey string
	}
	Email struct {
		APIURL string
		APIKey string
	}
	Decrypt struct {
		APIURL string
		Key    string
	}
	CORS struct {
		AllowedOrigins []string
	}
	Scheduler struct {
		PreCallWindow time.Duration
		PollInterval  time.Duration
	}
	Dedupe struct {
		RedisAddr     string
		RedisUsername string
		RedisPassword string
		TTL           time.Duration
	}
	DB struct {
		DSN string
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	Telegram struct {
		BotToken string
		ChatID   int64
	}
	API struct {
		Port     string
		BasePath string
	}
	Hospital struct {
		Name string
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	_ = godotenv.Load()

	var cfg Config

	// HMS settings
	cfg.HMS.BaseURL = os.Getenv("HMS_API_BASE_URL")
	cfg.HMS.APIKey = os.Getenv("HMS_API_KEY")

	// Patient-facing application
	cfg.Frontend.BaseURL = os.Getenv("FRONTEND_URL")

	// Notification gateways
	cfg.SMS.APIURL = os.Getenv("SMS_API_URL")
	cfg.SMS.APIKey = os.Getenv("SMS_API_KEY")
	cfg.Email.APIURL = os.Getenv("EMAIL_API_URL")
	cfg.Email.APIKey = os.Getenv("EMAIL_API_KEY")

	// Decryption relay
	cfg.Decrypt.APIURL = os.Getenv("DECRYPT_API_URL")
	cfg.Decrypt.Key = os.Getenv("DECRYPTION_KEY")

	// CORS allow-list; first entry doubles as the fallback origin
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, o)
			}
		}
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// Scheduler timing
	cfg.Scheduler.PreCallWindow = time.Duration(getInt("PRE_CALL_TIME_MINUTES", 15)) * time.Minute
	cfg.Scheduler.PollInterval = time.Duration(getInt("FETCH_INTERVAL_MINUTES", 5)) * time.Minute

	// Dedupe store; Redis is optional, in-memory otherwise
	cfg.Dedupe.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.Dedupe.RedisUsername = os.Getenv("REDIS_USERNAME")
	cfg.Dedupe.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.Dedupe.TTL = getDuration("DEDUPE_TTL", 48*time.Hour)

	// Optional integrations
	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", "video_notifications")
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}

	// API settings
	cfg.API.Port = getEnv("API_PORT", ":8080")
	cfg.API.BasePath = getEnv("API_BASE_PATH", "/api/v1")

	cfg.Hospital.Name = getEnv("HOSPITAL_NAME", "Kauvery Hospital")

	// Logging
	cfg.Logging.Dir = getEnv("LOG_DIR", "logs")
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	// Validate required settings
	missing := []string{}
	if cfg.HMS.BaseURL == "" {
		missing = append(missing, "HMS_API_BASE_URL")
	}
	if cfg.Frontend.BaseURL == "" {
		missing = append(missing, "FRONTEND_URL")
	}
	if cfg.SMS.APIURL == "" {
		missing = append(missing, "SMS_API_URL")
	}
	if cfg.Email.APIURL == "" {
		missing = append(missing, "EMAIL_API_URL")
	}
	if cfg.Decrypt.APIURL == "" {
		missing = append(missing, "DECRYPT_API_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
