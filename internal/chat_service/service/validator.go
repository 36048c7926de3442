package service

import (
	"Asclepius/internal/models"
)

// Turn is the normalized descriptor of one validated inbound turn.
type Turn struct {
	ConversationID string
	Role           string
	PatientID      string
	// Messages is the caller's full ordered message list, new message last.
	Messages []*models.Message
	// Query is the text of the most recent user message; empty when the
	// turn carries no extractable text.
	Query string
}

// ValidateTurn checks the inbound request and returns the normalized turn.
// It runs before any external call: a rejected turn triggers no retrieval,
// no generation and no persistence.
func ValidateTurn(req *models.ChatRequest) (*Turn, error) {
	if req == nil {
		return nil, ErrMalformedRequest
	}
	if len(req.Messages) == 0 {
		return nil, &MissingFieldError{Field: "messages"}
	}
	for _, m := range req.Messages {
		if m == nil || (m.Role != models.SpeakerUser && m.Role != models.SpeakerAssistant) {
			return nil, &MissingFieldError{Field: "messages"}
		}
	}
	if req.ChatID == "" {
		return nil, &MissingFieldError{Field: "chatId"}
	}
	if req.Role == "" {
		return nil, &MissingFieldError{Field: "role"}
	}
	if req.PatientID == "" {
		return nil, &MissingFieldError{Field: "patientId"}
	}
	if !ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	return &Turn{
		ConversationID: req.ChatID,
		Role:           req.Role,
		PatientID:      req.PatientID,
		Messages:       req.Messages,
		Query:          lastUserText(req.Messages),
	}, nil
}

// lastUserText returns the text of the most recent user message.
func lastUserText(messages []*models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.SpeakerUser {
			return messages[i].Text()
		}
	}
	return ""
}
