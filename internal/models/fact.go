package models

import "time"

// Fact is a stored semantic statement about a patient, scoped by the agent
// role that recorded it.
type Fact struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	Role           string    `json:"role"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// RetrievedFact is one ranked search result from the fact-graph store.
// There is no guaranteed structure beyond a short natural-language statement.
type RetrievedFact struct {
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Relation is an extracted entity relationship, scoped like a Fact.
type Relation struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Type      string `json:"type"`
	PatientID string `json:"patient_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

// TurnText is a plain role+text pair of one submitted message.
type TurnText struct {
	Role SpeakerRole `json:"role"`
	Text string      `json:"text"`
}

// FactSubmission is the payload of one asynchronous fact-graph ingestion:
// the trailing window of a completed turn, tagged for scoped retrieval.
type FactSubmission struct {
	PatientID      string     `json:"patient_id"`
	Role           string     `json:"role"`
	ConversationID string     `json:"conversation_id"`
	Turns          []TurnText `json:"turns"`
	SubmittedAt    time.Time  `json:"submitted_at"`
}
