package usage

import (
	"context"
	"time"

	"Asclepius/internal/config"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"
)

// Publisher sends finished usage records downstream.
type Publisher interface {
	Publish(ctx context.Context, record *models.UsageRecord) error
}

// Logger builds and publishes one append-only usage record per completed
// turn. Publish failures degrade to a structured log line so a broker outage
// never loses the accounting data entirely.
type Logger struct {
	pricing   config.PricingConfig
	publisher Publisher
	logger    *logger.Logger
}

// NewLogger creates a usage logger. publisher may be nil, in which case
// records are only written to the structured log.
func NewLogger(pricing config.PricingConfig, publisher Publisher, log *logger.Logger) *Logger {
	return &Logger{pricing: pricing, publisher: publisher, logger: log}
}

// Record prices the turn's usage and emits the record. It never returns an
// error; usage logging is best-effort by contract.
func (l *Logger) Record(ctx context.Context, traceID, conversationID, patientID, role, model string, u models.TurnUsage, duration time.Duration) {
	inputCost, outputCost, totalCost := ComputeCost(u, l.pricing.ForModel(model))
	record := &models.UsageRecord{
		TraceID:        traceID,
		ConversationID: conversationID,
		PatientID:      patientID,
		Role:           role,
		Model:          model,
		Usage:          u,
		InputCost:      inputCost,
		OutputCost:     outputCost,
		TotalCost:      totalCost,
		DurationMS:     duration.Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}

	log := l.logger.WithTrace(traceID).WithConversation(conversationID, patientID).WithPayload(map[string]interface{}{
		"model":       model,
		"total_cost":  totalCost,
		"duration_ms": record.DurationMS,
	})

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, record); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to publish usage record, logging only")
		}
	}
	log.Info("turn usage recorded")
}
