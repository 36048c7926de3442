package publisher

import (
	"context"
	"encoding/json"

	"Asclepius/internal/models"
	"Asclepius/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// FactPublisher hands completed turns to the memory service over Kafka.
// It implements memory.Submitter.
type FactPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewFactPublisher creates a publisher over a writer bound to the
// fact-ingest topic.
func NewFactPublisher(writer *kafka.Writer, logger *logger.Logger) *FactPublisher {
	return &FactPublisher{
		writer: writer,
		logger: logger,
	}
}

// Submit publishes the turn window keyed by conversation id, so turns of one
// conversation land on one partition in order.
func (p *FactPublisher) Submit(ctx context.Context, sub *models.FactSubmission) error {
	msgBytes, err := json.Marshal(sub)
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to marshal fact submission for Kafka")
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(sub.ConversationID),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"topic": p.writer.Topic}).Error("Failed to write fact submission to Kafka")
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *FactPublisher) Close() error {
	return p.writer.Close()
}
