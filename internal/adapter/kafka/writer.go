// Package kafka publishes computed distances to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces distance events to a Kafka topic.
// It implements session.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one event keyed by its session ID, so events of a session
// stay ordered within a partition.
func (w *Writer) Publish(ctx context.Context, event domain.DistanceEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write distance event: %w", err)
	}
	w.logger.Debug("distance event published",
		"session_id", event.SessionID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DistanceEvent into a Kafka message.
func serializeToMessage(event domain.DistanceEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize distance event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "algorithm", Value: []byte(event.Algorithm)},
			{Key: "computed_at", Value: []byte(event.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
