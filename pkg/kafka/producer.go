package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// DomainEvent announces that a row was created or removed. Consumers look the
// row up by ElementType and Identifier.
type DomainEvent struct {
	EventType             string             `json:"eventType"`
	ElementType           models.ElementType `json:"elementType,omitempty"`
	Identifier            int64              `json:"identifier,omitempty"`
	ContactID             int64              `json:"contactId,omitempty"`
	PrisonerNumber        string             `json:"prisonerNumber,omitempty"`
	RemovedPrisonerNumber string             `json:"removedPrisonerNumber,omitempty"`
	Source                string             `json:"source"`
	User                  string             `json:"user,omitempty"`
	OccurredAt            time.Time          `json:"occurredAt"`
}

// Key keeps every event of a prisoner on one partition.
func (e *DomainEvent) Key() string {
	if e.PrisonerNumber != "" {
		return e.PrisonerNumber
	}
	if e.ContactID != 0 {
		return strconv.FormatInt(e.ContactID, 10)
	}
	return strconv.FormatInt(e.Identifier, 10)
}

// PublishDomainEvents writes events as one batch, in order.
func (p *Producer) PublishDomainEvents(ctx context.Context, events []*DomainEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDomainEvents")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now().UTC()
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
		}

		messages[i] = kafka.Message{
			Topic: p.topic,
			Key:   []byte(event.Key()),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
				{Key: "element_type", Value: []byte(event.ElementType)},
				{Key: "source", Value: []byte(event.Source)},
				{Key: "trace_id", Value: []byte(tracing.GetTraceID(ctx))},
				{Key: "schema_version", Value: []byte("1.0")},
			},
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(events),
		}).Error("Failed to publish domain events batch")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_size": len(events),
	}).Debug("Published domain events batch")

	return nil
}
