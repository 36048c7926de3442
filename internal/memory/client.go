package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Asclepius/internal/memory/store"
	"Asclepius/internal/models"
)

// ErrRetrievalUnavailable marks a fact-graph search that failed because the
// backend was unreachable or errored, as opposed to matching nothing.
var ErrRetrievalUnavailable = errors.New("memory retrieval unavailable")

// ErrFactWriteUnavailable marks a failed fact-graph submission.
var ErrFactWriteUnavailable = errors.New("fact submission unavailable")

const (
	// MaxFacts caps how many retrieved facts ground one turn.
	MaxFacts = 8
	// SubmitWindow is the trailing message window submitted for extraction.
	SubmitWindow = 4
)

// Submitter delivers a fact submission to the ingestion pipeline.
type Submitter interface {
	Submit(ctx context.Context, sub *models.FactSubmission) error
}

// Client is the chat-side face of the fact-graph collaborator: synchronous
// scoped search for grounding the prompt, asynchronous submission of
// completed turns for extraction.
type Client struct {
	store store.GraphStore
	pub   Submitter
}

// NewClient wires a Client over a graph store and a submitter.
func NewClient(graph store.GraphStore, pub Submitter) *Client {
	return &Client{store: graph, pub: pub}
}

// Search returns up to MaxFacts facts relevant to query, scoped to the
// given patient and role. A backend failure is reported as
// ErrRetrievalUnavailable; no match is an empty list and nil error.
func (c *Client) Search(ctx context.Context, query, patientID, role string) ([]*models.RetrievedFact, error) {
	facts, err := c.store.SearchFacts(ctx, query, patientID, role, MaxFacts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	if len(facts) > MaxFacts {
		facts = facts[:MaxFacts]
	}
	return facts, nil
}

// SubmitTurns extracts the trailing SubmitWindow messages as role+text
// pairs and hands them to the ingestion pipeline, tagged by
// (patient, role, conversation). Messages without text are dropped.
func (c *Client) SubmitTurns(ctx context.Context, conversationID, patientID, role string, messages []*models.Message) error {
	turns := TrailingWindow(messages, SubmitWindow)
	if len(turns) == 0 {
		return nil
	}

	sub := &models.FactSubmission{
		PatientID:      patientID,
		Role:           role,
		ConversationID: conversationID,
		Turns:          turns,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := c.pub.Submit(ctx, sub); err != nil {
		return fmt.Errorf("%w: %v", ErrFactWriteUnavailable, err)
	}
	return nil
}

// TrailingWindow converts the last n messages into plain role+text pairs,
// skipping messages that carry no text.
func TrailingWindow(messages []*models.Message, n int) []models.TurnText {
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	var turns []models.TurnText
	for _, msg := range messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		turns = append(turns, models.TurnText{Role: msg.Role, Text: text})
	}
	return turns
}
