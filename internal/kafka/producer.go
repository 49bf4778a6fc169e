package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-backoffice/internal/logger"

	"github.com/segmentio/kafka-go"
)

const (
	EventEnquiryCreated   = "enquiry.created"
	EventAdmissionCreated = "admission.created"
	EventAdmissionDeleted = "admission.deleted"
	EventPaymentRecorded  = "payment.recorded"
	EventBillCreated      = "bill.created"
)

var AllEvents = []string{
	EventEnquiryCreated,
	EventAdmissionCreated,
	EventAdmissionDeleted,
	EventPaymentRecorded,
	EventBillCreated,
}

// Publisher is what services depend on. NopPublisher is used when Kafka is disabled.
type Publisher interface {
	Publish(ctx context.Context, event, key string, data interface{}) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

// Envelope is the JSON value of every message.
type Envelope struct {
	Event      string      `json:"event"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	Prefix string
	Logger *logger.Logger
}

func NewProducer(brokers []string, prefix string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Producer{Writer: writer, Prefix: prefix, Logger: log}
}

// Topic returns the full topic name for an event, e.g. backoffice.payment.recorded.
func Topic(prefix, event string) string {
	if prefix == "" {
		return event
	}
	return prefix + "." + event
}

// Topics lists every topic the service writes to.
func Topics(prefix string) []string {
	topics := make([]string, 0, len(AllEvents))
	for _, e := range AllEvents {
		topics = append(topics, Topic(prefix, e))
	}
	return topics
}

// Publish streams one domain event, keyed by the record's identifier.
func (p *Producer) Publish(ctx context.Context, event, key string, data interface{}) error {
	msgBytes, err := json.Marshal(Envelope{
		Event:      event,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	topic := Topic(p.Prefix, event)
	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", topic, key)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
