package publisher

import (
	"context"
	"encoding/json"

	"Asclepius/internal/models"
	"Asclepius/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// UsagePublisher emits per-turn token accounting records to Kafka for
// downstream billing and reporting.
type UsagePublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewUsagePublisher creates a publisher over a writer bound to the
// turn-usage topic.
func NewUsagePublisher(writer *kafka.Writer, logger *logger.Logger) *UsagePublisher {
	return &UsagePublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish sends one usage record, keyed by conversation id.
func (p *UsagePublisher) Publish(ctx context.Context, record *models.UsageRecord) error {
	msgBytes, err := json.Marshal(record)
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to marshal usage record for Kafka")
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.ConversationID),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"topic": p.writer.Topic}).Error("Failed to write usage record to Kafka")
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *UsagePublisher) Close() error {
	return p.writer.Close()
}
