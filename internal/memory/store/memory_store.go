package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"Asclepius/internal/models"
)

// MemoryGraphStore is an in-process GraphStore used by tests and local
// development. Ranking is naive term overlap, which keeps results
// deterministic.
type MemoryGraphStore struct {
	mu        sync.RWMutex
	facts     []*models.Fact
	relations []*models.Relation
}

// NewMemoryGraphStore returns an empty in-memory store.
func NewMemoryGraphStore() *MemoryGraphStore {
	return &MemoryGraphStore{}
}

func (s *MemoryGraphStore) SearchFacts(_ context.Context, query, patientID, role string, limit int) ([]*models.RetrievedFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	var matches []*models.RetrievedFact
	for _, fact := range s.facts {
		if fact.PatientID != patientID || fact.Role != role {
			continue
		}
		content := strings.ToLower(fact.Content)
		score := 0.0
		for _, term := range terms {
			if strings.Contains(content, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, &models.RetrievedFact{Content: fact.Content, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemoryGraphStore) AddFacts(_ context.Context, facts []*models.Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = append(s.facts, facts...)
	return nil
}

func (s *MemoryGraphStore) AddRelations(_ context.Context, relations []*models.Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations = append(s.relations, relations...)
	return nil
}

// Relations returns a snapshot of the stored relations.
func (s *MemoryGraphStore) Relations() []*models.Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Relation, len(s.relations))
	copy(out, s.relations)
	return out
}

// Facts returns a snapshot of the stored facts.
func (s *MemoryGraphStore) Facts() []*models.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Fact, len(s.facts))
	copy(out, s.facts)
	return out
}
