package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"Asclepius/internal/memory/store"
	"Asclepius/internal/models"
)

type failingGraph struct{}

func (failingGraph) SearchFacts(context.Context, string, string, string, int) ([]*models.RetrievedFact, error) {
	return nil, fmt.Errorf("bolt connection refused")
}
func (failingGraph) AddFacts(context.Context, []*models.Fact) error         { return nil }
func (failingGraph) AddRelations(context.Context, []*models.Relation) error { return nil }

type capturingSubmitter struct {
	subs []*models.FactSubmission
	err  error
}

func (s *capturingSubmitter) Submit(_ context.Context, sub *models.FactSubmission) error {
	if s.err != nil {
		return s.err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func msg(role models.SpeakerRole, text string) *models.Message {
	return models.NewTextMessage(role, text)
}

func TestSearch_BackendFailureIsRetrievalUnavailable(t *testing.T) {
	c := NewClient(failingGraph{}, &capturingSubmitter{})

	_, err := c.Search(context.Background(), "dosage", "p1", "doctor")
	if !errors.Is(err, ErrRetrievalUnavailable) {
		t.Fatalf("err = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestSearch_NoMatchIsEmptyNotError(t *testing.T) {
	c := NewClient(store.NewMemoryGraphStore(), &capturingSubmitter{})

	facts, err := c.Search(context.Background(), "dosage", "p1", "doctor")
	if err != nil {
		t.Fatalf("err = %v, want nil for empty result", err)
	}
	if len(facts) != 0 {
		t.Fatalf("facts = %+v, want none", facts)
	}
}

func TestSubmitTurns_TrailingWindowAndTags(t *testing.T) {
	pub := &capturingSubmitter{}
	c := NewClient(store.NewMemoryGraphStore(), pub)

	messages := []*models.Message{
		msg(models.SpeakerUser, "m1"),
		msg(models.SpeakerAssistant, "m2"),
		msg(models.SpeakerUser, "m3"),
		msg(models.SpeakerAssistant, "m4"),
		msg(models.SpeakerUser, "m5"),
		msg(models.SpeakerAssistant, "m6"),
	}
	if err := c.SubmitTurns(context.Background(), "c1", "p1", "doctor", messages); err != nil {
		t.Fatalf("SubmitTurns: %v", err)
	}

	if len(pub.subs) != 1 {
		t.Fatalf("got %d submissions, want 1", len(pub.subs))
	}
	sub := pub.subs[0]
	if sub.PatientID != "p1" || sub.Role != "doctor" || sub.ConversationID != "c1" {
		t.Errorf("bad tags: %+v", sub)
	}
	if len(sub.Turns) != 4 {
		t.Fatalf("window = %d messages, want 4", len(sub.Turns))
	}
	if sub.Turns[0].Text != "m3" || sub.Turns[3].Text != "m6" {
		t.Errorf("window content wrong: %+v", sub.Turns)
	}
}

func TestSubmitTurns_SkipsTextlessMessages(t *testing.T) {
	pub := &capturingSubmitter{}
	c := NewClient(store.NewMemoryGraphStore(), pub)

	messages := []*models.Message{
		msg(models.SpeakerUser, "hello"),
		{Role: models.SpeakerUser, Parts: []*models.Part{{InlineData: &models.Blob{MIMEType: "image/png"}}}},
	}
	if err := c.SubmitTurns(context.Background(), "c1", "p1", "doctor", messages); err != nil {
		t.Fatalf("SubmitTurns: %v", err)
	}
	if len(pub.subs[0].Turns) != 1 {
		t.Errorf("turns = %+v, want only the text message", pub.subs[0].Turns)
	}
}

func TestSubmitTurns_NothingToSubmit(t *testing.T) {
	pub := &capturingSubmitter{}
	c := NewClient(store.NewMemoryGraphStore(), pub)

	err := c.SubmitTurns(context.Background(), "c1", "p1", "doctor", nil)
	if err != nil {
		t.Fatalf("SubmitTurns: %v", err)
	}
	if len(pub.subs) != 0 {
		t.Errorf("empty window should not publish, got %+v", pub.subs)
	}
}

func TestSubmitTurns_FailureIsFactWriteUnavailable(t *testing.T) {
	pub := &capturingSubmitter{err: fmt.Errorf("broker down")}
	c := NewClient(store.NewMemoryGraphStore(), pub)

	err := c.SubmitTurns(context.Background(), "c1", "p1", "doctor", []*models.Message{msg(models.SpeakerUser, "hi")})
	if !errors.Is(err, ErrFactWriteUnavailable) {
		t.Fatalf("err = %v, want ErrFactWriteUnavailable", err)
	}
}
