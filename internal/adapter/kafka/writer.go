package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismic-map/internal/config"
	"github.com/couchcryptid/seismic-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes layer change notifications to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured change topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes changes in a single WriteMessages call.
// Messages are keyed by layer so that one layer's changes stay ordered.
func (w *Writer) Publish(ctx context.Context, changes ...domain.Change) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(changes))
	for i := range changes {
		msg, err := serializeToMessage(changes[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish layer changes: %w", err)
	}
	w.logger.Debug("layer changes published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Change into a Kafka message.
func serializeToMessage(c domain.Change) (kafkago.Message, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize layer change: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "layer", Value: []byte(c.Layer)},
		{Key: "changed_at", Value: []byte(c.At.Format(time.RFC3339))},
	}
	if c.RequestID != "" {
		headers = append(headers, kafkago.Header{Key: "request_id", Value: []byte(c.RequestID)})
	}
	return kafkago.Message{
		Key:     []byte(c.Layer),
		Value:   data,
		Headers: headers,
	}, nil
}

// DecodeChange parses a message produced by Writer.
func DecodeChange(msg kafkago.Message) (domain.Change, error) {
	var c domain.Change
	if err := json.Unmarshal(msg.Value, &c); err != nil {
		return domain.Change{}, fmt.Errorf("decode layer change: %w", err)
	}
	return c, nil
}
