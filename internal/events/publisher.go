// Package events fans dispatch outcomes out to observers: a Kafka audit
// stream and live websocket monitors. Both are best-effort; the poller's
// core guarantees never depend on them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"teleconsult-notifier/internal/logging"
	"teleconsult-notifier/internal/models"
)

// Sink receives dispatch outcomes from the poller.
type Sink interface {
	NotificationDispatched(ctx context.Context, event models.DispatchEvent)
}

// Publisher writes dispatch events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

func NewPublisher(broker, topic string, logger *logging.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// NotificationDispatched publishes one dispatch event, keyed by appointment
// number so all events for an appointment land on one partition.
func (p *Publisher) NotificationDispatched(ctx context.Context, event models.DispatchEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Errorf("Marshal dispatch event %s: %v", event.EventID, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.AppointmentNumber),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Errorf("Publish dispatch event %s: %v", event.EventID, err)
		return
	}
	p.logger.Infof("Published dispatch event %s for appointment %s", event.EventID, event.AppointmentNumber)
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
