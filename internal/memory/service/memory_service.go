package service

import (
	"context"
	"fmt"

	"Asclepius/internal/memory/extractor"
	"Asclepius/internal/memory/store"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"
)

// MemoryService ingests submitted turn windows into the fact graph:
// extract, then persist, both halves scoped by (patient, role).
type MemoryService struct {
	extractor extractor.Extractor
	graph     store.GraphStore
	logger    *logger.Logger
}

// NewMemoryService wires an ingestion service.
func NewMemoryService(ex extractor.Extractor, graph store.GraphStore, log *logger.Logger) *MemoryService {
	return &MemoryService{extractor: ex, graph: graph, logger: log}
}

// Ingest processes one fact submission. It is safe to re-run for the same
// submission; the graph store merges on content.
func (s *MemoryService) Ingest(ctx context.Context, sub *models.FactSubmission) error {
	facts, relations, err := s.extractor.Extract(ctx, sub)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if len(facts) == 0 && len(relations) == 0 {
		s.logger.WithConversation(sub.ConversationID, sub.PatientID).Debug("nothing to ingest")
		return nil
	}

	if len(facts) > 0 {
		if err := s.graph.AddFacts(ctx, facts); err != nil {
			return fmt.Errorf("storing facts failed: %w", err)
		}
	}
	if len(relations) > 0 {
		if err := s.graph.AddRelations(ctx, relations); err != nil {
			return fmt.Errorf("storing relations failed: %w", err)
		}
	}

	s.logger.WithConversation(sub.ConversationID, sub.PatientID).WithPayload(map[string]interface{}{
		"facts":     len(facts),
		"relations": len(relations),
		"role":      sub.Role,
	}).Info("ingested fact submission")
	return nil
}
