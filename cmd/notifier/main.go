package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"teleconsult-notifier/internal/api"
	"teleconsult-notifier/internal/config"
	"teleconsult-notifier/internal/db"
	"teleconsult-notifier/internal/dedupe"
	"teleconsult-notifier/internal/events"
	"teleconsult-notifier/internal/hms"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/notification"
	"teleconsult-notifier/internal/ops"
	"teleconsult-notifier/internal/poller"
	"teleconsult-notifier/internal/relay"
	"teleconsult-notifier/internal/session"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dedupe store: Redis when configured, in-memory reference store otherwise
	var store dedupe.Store
	if cfg.Dedupe.RedisAddr != "" {
		rdb, err := dedupe.NewRedisClient(cfg.Dedupe.RedisAddr, cfg.Dedupe.RedisUsername, cfg.Dedupe.RedisPassword)
		if err != nil {
			logger.Errorf("Redis connect failed: %v", err)
			log.Fatalf("Redis connect failed: %v", err)
		}
		defer rdb.Close()
		store = dedupe.NewRedisStore(rdb, cfg.Dedupe.TTL)
		logger.Infof("Using Redis dedupe store at %s", cfg.Dedupe.RedisAddr)
	} else {
		store = dedupe.NewMemoryStore()
		logger.Warnf("Using in-memory dedupe store; notification history is lost on restart")
	}

	// Optional notification history
	var history *db.DB
	if cfg.DB.DSN != "" {
		history, err = db.New(cfg.DB.DSN)
		if err != nil {
			logger.Errorf("DB connect failed: %v", err)
			log.Fatalf("DB connect failed: %v", err)
		}
		defer history.Close()
		logger.Infof("Notification history enabled")
	}

	// Event fan-out
	hub := events.NewHub(logger)
	sinks := []events.Sink{hub}
	if cfg.Kafka.Broker != "" {
		publisher := events.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, logger)
		defer publisher.Close()
		sinks = append(sinks, publisher)
		logger.Infof("Kafka dispatch events enabled on topic %s", cfg.Kafka.Topic)
	}

	hmsClient := hms.NewClient(cfg.HMS.BaseURL, cfg.HMS.APIKey)
	dispatcher := notification.NewDispatcher(cfg, logger)

	opts := poller.Options{
		FrontendURL:   cfg.Frontend.BaseURL,
		PreCallWindow: cfg.Scheduler.PreCallWindow,
		PollInterval:  cfg.Scheduler.PollInterval,
		Sinks:         sinks,
	}
	if history != nil {
		opts.History = history
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		opts.Alerter = ops.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		logger.Infof("Telegram ops alerts enabled")
	}

	p := poller.New(hmsClient, dispatcher, store, logger, opts)
	go p.Run(rootCtx)

	// HTTP surface
	validator := session.NewValidator(hmsClient, logger)
	rly := relay.New(cfg.Decrypt.APIURL, cfg.Decrypt.Key, logger)
	var lister api.DispatchLister
	if history != nil {
		lister = history
	}
	handler := api.NewHandler(validator, rly, lister, logger)
	router := api.NewRouter(cfg, handler, hub, logger)

	srv := &http.Server{
		Addr:    cfg.API.Port,
		Handler: router,
	}
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("API run failed: %v", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Infof("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	logger.Infof("Service stopped")
}
