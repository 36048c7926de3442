package service

import (
	"context"
	"fmt"
	"testing"

	"Asclepius/internal/memory/store"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"
)

type stubExtractor struct {
	facts     []*models.Fact
	relations []*models.Relation
	err       error
}

func (s *stubExtractor) Extract(context.Context, *models.FactSubmission) ([]*models.Fact, []*models.Relation, error) {
	return s.facts, s.relations, s.err
}

func TestIngest_WritesFactsAndRelations(t *testing.T) {
	graph := store.NewMemoryGraphStore()
	svc := NewMemoryService(&stubExtractor{
		facts: []*models.Fact{{ID: "f1", PatientID: "p1", Role: "doctor", Content: "allergic to penicillin"}},
		relations: []*models.Relation{
			{Source: "patient", Target: "penicillin", Type: "allergic_to", PatientID: "p1", Role: "doctor"},
		},
	}, graph, logger.New("test"))

	err := svc.Ingest(context.Background(), &models.FactSubmission{PatientID: "p1", Role: "doctor", ConversationID: "c1"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := graph.Facts(); len(got) != 1 || got[0].Content != "allergic to penicillin" {
		t.Errorf("facts = %+v", got)
	}
	if got := graph.Relations(); len(got) != 1 || got[0].Type != "allergic_to" {
		t.Errorf("relations = %+v", got)
	}
}

func TestIngest_EmptyExtractionIsNoop(t *testing.T) {
	graph := store.NewMemoryGraphStore()
	svc := NewMemoryService(&stubExtractor{}, graph, logger.New("test"))

	if err := svc.Ingest(context.Background(), &models.FactSubmission{PatientID: "p1"}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(graph.Facts()) != 0 || len(graph.Relations()) != 0 {
		t.Error("no-op ingest wrote to the graph")
	}
}

func TestIngest_ExtractionFailure(t *testing.T) {
	svc := NewMemoryService(&stubExtractor{err: fmt.Errorf("model unavailable")}, store.NewMemoryGraphStore(), logger.New("test"))

	if err := svc.Ingest(context.Background(), &models.FactSubmission{PatientID: "p1"}); err == nil {
		t.Fatal("expected error when extraction fails")
	}
}
