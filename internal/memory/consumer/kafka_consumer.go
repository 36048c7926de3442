package consumer

import (
	"context"
	"encoding/json"

	"Asclepius/internal/memory/service"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer drains the fact-ingest topic into the MemoryService.
type KafkaConsumer struct {
	reader *kafka.Reader
	svc    *service.MemoryService
	logger *logger.Logger
}

// NewKafkaConsumer wires a consumer over an already-configured reader.
func NewKafkaConsumer(reader *kafka.Reader, svc *service.MemoryService, log *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{reader: reader, svc: svc, logger: log}
}

// Start launches the consume loop. It returns when ctx is cancelled.
// A failed ingest is logged and the message is not committed, so it will be
// redelivered; a malformed message is committed and dropped.
func (c *KafkaConsumer) Start(ctx context.Context) {
	go func() {
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to fetch message")
				continue
			}

			var sub models.FactSubmission
			if err := json.Unmarshal(msg.Value, &sub); err != nil {
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("dropping malformed fact submission")
				c.commit(ctx, msg)
				continue
			}

			if err := c.svc.Ingest(ctx, &sub); err != nil {
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to ingest fact submission")
				continue
			}

			c.commit(ctx, msg)
		}
	}()
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to commit message")
	}
}

// Close shuts down the underlying reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
