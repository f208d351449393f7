package notify

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes notifications as domain events.
type Kafka struct {
	writer messageWriter
}

// NewKafka creates a publisher for topic on brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Send publishes one event keyed by patient id so a patient's events keep
// their order within a partition.
func (k *Kafka) Send(ctx context.Context, n domain.Notification) error {
	value, err := encode(n)
	if err != nil {
		return fmt.Errorf("kafka encode: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.PatientID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
