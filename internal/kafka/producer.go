package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"ms-charity/internal/config"
	"ms-charity/internal/logger"
	"ms-charity/internal/models"
)

const (
	TypeRegistrationAdmitted = "registration.admitted"
	TypeEventChanged         = "event.changed"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope wraps every domain message.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

type RegistrationAdmitted struct {
	Registration   models.Registration `json:"registration"`
	RemainingSpots int                 `json:"remainingSpots"`
}

type EventChanged struct {
	EventID int64  `json:"eventId"`
	Action  string `json:"action"`
}

// BatchTimeout bounds how long a synchronous publish waits for its batch to fill.
const BatchTimeout = 10 * time.Millisecond

type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

// NewProducer builds one writer for all topics; the topic is set per message.
// Messages are keyed by event id so each event's history stays ordered.
// Publishing is synchronous from request handlers, so the batch window is kept
// short instead of kafka-go's one second default.
func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
		BatchTimeout:           BatchTimeout,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

func (p *Producer) Publish(ctx context.Context, topic, key, msgType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	msgBytes, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       msgType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	p.Logger.LogPublish(topic, msgType, key)

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	})
}

// PublishRegistrationAdmitted streams a committed admission to Kafka
func (p *Producer) PublishRegistrationAdmitted(ctx context.Context, reg models.Registration, remainingSpots int) error {
	return p.Publish(ctx, p.Topics.Registrations, strconv.FormatInt(reg.EventID, 10), TypeRegistrationAdmitted,
		RegistrationAdmitted{Registration: reg, RemainingSpots: remainingSpots})
}

// PublishEventChanged streams a catalog create, update or delete to Kafka
func (p *Producer) PublishEventChanged(ctx context.Context, action string, eventID int64) error {
	return p.Publish(ctx, p.Topics.Events, strconv.FormatInt(eventID, 10), TypeEventChanged,
		EventChanged{EventID: eventID, Action: action})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// Noop stands in when KAFKA_ENABLED is false.
type Noop struct{}

func (Noop) PublishRegistrationAdmitted(context.Context, models.Registration, int) error { return nil }
func (Noop) PublishEventChanged(context.Context, string, int64) error                   { return nil }
