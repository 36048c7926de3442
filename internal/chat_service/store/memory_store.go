package store

import (
	"context"
	"sort"
	"sync"

	"Asclepius/internal/models"
)

// MemoryConversationStore is an in-memory ConversationStore used in tests and
// for running the chat service without MongoDB. It applies the same merge
// rules as the Mongo implementation.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
}

// NewMemoryConversationStore creates an empty in-memory store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{conversations: make(map[string]*models.Conversation)}
}

func (s *MemoryConversationStore) Upsert(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.conversations[conv.ID]
	if !ok {
		stored = &models.Conversation{ID: conv.ID, CreatedAt: conv.CreatedAt}
		s.conversations[conv.ID] = stored
	}

	stored.Messages = conv.Messages
	stored.Preview = conv.Preview
	stored.UpdatedAt = conv.UpdatedAt
	if conv.Role != "" {
		stored.Role = conv.Role
	}
	if conv.PatientID != "" {
		stored.PatientID = conv.PatientID
	}
	if conv.Title != "" {
		stored.Title = conv.Title
	}
	return nil
}

func (s *MemoryConversationStore) Get(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	copied := *stored
	copied.Messages = append([]*models.Message(nil), stored.Messages...)
	return &copied, nil
}

func (s *MemoryConversationStore) List(_ context.Context) ([]*models.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]*models.ConversationSummary, 0, len(s.conversations))
	for _, c := range s.conversations {
		summaries = append(summaries, &models.ConversationSummary{
			ID:        c.ID,
			Role:      c.Role,
			PatientID: c.PatientID,
			Title:     c.Title,
			Preview:   c.Preview,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}
