package store

import (
	"context"
	"testing"
	"time"

	"Asclepius/internal/models"
)

func TestUpsertCreatesThenMerges(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := ConversationUpdate("c1", "doctor", "p-77", []*models.Message{
		models.NewTextMessage(models.SpeakerUser, "patient reports chest pain"),
		models.NewTextMessage(models.SpeakerAssistant, "how long has the pain lasted?"),
	}, t0)
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := s.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for existing conversation")
	}
	if got.Role != "doctor" || got.PatientID != "p-77" {
		t.Errorf("identity fields = (%q, %q), want (doctor, p-77)", got.Role, got.PatientID)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, t0)
	}

	// A later turn omitting role and patient id must not clear them.
	t1 := t0.Add(time.Minute)
	second := ConversationUpdate("c1", "", "", []*models.Message{
		models.NewTextMessage(models.SpeakerUser, "patient reports chest pain"),
		models.NewTextMessage(models.SpeakerAssistant, "how long has the pain lasted?"),
		models.NewTextMessage(models.SpeakerUser, "about two hours"),
		models.NewTextMessage(models.SpeakerAssistant, "noted, two hours of chest pain"),
	}, t1)
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, _ = s.Get(ctx, "c1")
	if got.Role != "doctor" || got.PatientID != "p-77" {
		t.Errorf("merge cleared identity fields: (%q, %q)", got.Role, got.PatientID)
	}
	if len(got.Messages) != 4 {
		t.Errorf("Messages len = %d, want 4", len(got.Messages))
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt changed on update: %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(t1) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, t1)
	}
}

func TestUpsertOverwritesIdentityWhenSupplied(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	now := time.Now()
	_ = s.Upsert(ctx, ConversationUpdate("c1", "nurse", "p-1", nil, now))
	_ = s.Upsert(ctx, ConversationUpdate("c1", "doctor", "p-2", nil, now.Add(time.Second)))

	got, _ := s.Get(ctx, "c1")
	if got.Role != "doctor" || got.PatientID != "p-2" {
		t.Errorf("identity = (%q, %q), want latest supplied values", got.Role, got.PatientID)
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	s := NewMemoryConversationStore()
	got, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for unknown id", got)
	}
}

func TestListOrdersByUpdatedAtDesc(t *testing.T) {
	s := NewMemoryConversationStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_ = s.Upsert(ctx, ConversationUpdate("old", "doctor", "p-1", nil, base))
	_ = s.Upsert(ctx, ConversationUpdate("new", "doctor", "p-1", nil, base.Add(time.Hour)))
	_ = s.Upsert(ctx, ConversationUpdate("mid", "doctor", "p-1", nil, base.Add(time.Minute)))

	summaries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, sum := range summaries {
		ids = append(ids, sum.ID)
	}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("List() order = %v, want %v", ids, want)
		}
	}
}

func TestConversationUpdateDerivesTitleAndPreview(t *testing.T) {
	messages := []*models.Message{
		{Role: models.SpeakerUser, Parts: []*models.Part{{InlineData: &models.Blob{MIMEType: "image/png"}}}},
		models.NewTextMessage(models.SpeakerUser, "summarise the attached scan"),
		models.NewTextMessage(models.SpeakerAssistant, "the scan shows no acute findings"),
	}
	conv := ConversationUpdate("c1", "doctor", "p-1", messages, time.Now())
	if conv.Title != "summarise the attached scan" {
		t.Errorf("Title = %q", conv.Title)
	}
	if conv.Preview != "the scan shows no acute findings" {
		t.Errorf("Preview = %q", conv.Preview)
	}
}
