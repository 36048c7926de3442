package models

import "time"

// Conversation is the durable transcript record, one per conversation id.
// Messages are the sole source of truth; Title and Preview are derived and
// may be recomputed at any time.
type Conversation struct {
	ID        string     `json:"chatId" bson:"_id"`
	Role      string     `json:"role,omitempty" bson:"role,omitempty"`
	PatientID string     `json:"patientId,omitempty" bson:"patient_id,omitempty"`
	Title     string     `json:"title,omitempty" bson:"title,omitempty"`
	Preview   string     `json:"preview,omitempty" bson:"preview,omitempty"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
	Messages  []*Message `json:"messages" bson:"messages"`
}

// ConversationSummary is the list-view projection of a conversation,
// everything except the message sequence.
type ConversationSummary struct {
	ID        string    `json:"chatId" bson:"_id"`
	Role      string    `json:"role,omitempty" bson:"role,omitempty"`
	PatientID string    `json:"patientId,omitempty" bson:"patient_id,omitempty"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Preview   string    `json:"preview,omitempty" bson:"preview,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}
