// Package events publishes background task outcomes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quote-service/internal/task"

	"github.com/segmentio/kafka-go"
)

const eventTypePrefix = "quote.task."

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the message value.
type Event struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Task       task.Outcome `json:"task"`
}

// Publisher implements task.Recorder on top of a Kafka writer.
type Publisher struct {
	writer messageWriter
}

// NewKafkaWriter builds the writer used by NewPublisher.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w}
}

// Record publishes o keyed by draft order, so events of one order stay ordered
// within a partition.
func (p *Publisher) Record(ctx context.Context, o task.Outcome) error {
	ev := Event{Type: eventTypePrefix + o.Status, OccurredAt: time.Now().UTC(), Task: o}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := o.DraftOrderID
	if key == "" {
		key = o.ID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "task-id", Value: []byte(o.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
