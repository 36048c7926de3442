package models

import "time"

// TurnUsage carries the token counts reported by the generation service.
// Every count is optional; a nil field means the backend did not report it.
type TurnUsage struct {
	InputTokens     *int64 `json:"input_tokens,omitempty"`
	OutputTokens    *int64 `json:"output_tokens,omitempty"`
	ReasoningTokens *int64 `json:"reasoning_tokens,omitempty"`
	CachedTokens    *int64 `json:"cached_tokens,omitempty"`
}

// UsageRecord is one append-only usage/cost log entry, written once per
// completed turn and never mutated.
type UsageRecord struct {
	TraceID        string    `json:"trace_id"`
	ConversationID string    `json:"conversation_id"`
	PatientID      string    `json:"patient_id"`
	Role           string    `json:"role"`
	Model          string    `json:"model"`
	Usage          TurnUsage `json:"usage"`
	InputCost      float64   `json:"input_cost"`
	OutputCost     float64   `json:"output_cost"`
	TotalCost      float64   `json:"total_cost"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
