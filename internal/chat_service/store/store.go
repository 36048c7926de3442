package store

import (
	"context"
	"time"

	"Asclepius/internal/models"
)

// ConversationStore defines the interface for transcript persistence.
type ConversationStore interface {
	// Upsert merges conv into the stored record keyed by conv.ID, creating
	// it when absent. Messages, Preview and UpdatedAt always replace the
	// stored values; Role, PatientID and Title replace them only when the
	// supplied value is non-empty, so a partial write never clears identity
	// fields set by an earlier turn.
	Upsert(ctx context.Context, conv *models.Conversation) error
	// Get returns the conversation by id, or nil when it does not exist.
	Get(ctx context.Context, id string) (*models.Conversation, error)
	// List returns summaries of all conversations, most recently
	// updated first.
	List(ctx context.Context) ([]*models.ConversationSummary, error)
}

// ConversationUpdate builds the Conversation record for a completed turn.
func ConversationUpdate(id, role, patientID string, messages []*models.Message, now time.Time) *models.Conversation {
	return &models.Conversation{
		ID:        id,
		Role:      role,
		PatientID: patientID,
		Title:     titleFrom(messages),
		Preview:   previewFrom(messages),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  messages,
	}
}

// titleFrom derives a short title from the first user message.
func titleFrom(messages []*models.Message) string {
	for _, m := range messages {
		if m.Role == models.SpeakerUser {
			if t := m.Text(); t != "" {
				return truncate(t, 60)
			}
		}
	}
	return ""
}

// previewFrom derives the list-view preview from the last message with text.
func previewFrom(messages []*models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if t := messages[i].Text(); t != "" {
			return truncate(t, 120)
		}
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
