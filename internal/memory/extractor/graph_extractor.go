package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Asclepius/internal/llm"
	"Asclepius/internal/models"

	"github.com/google/uuid"
)

const extractPrompt = `You are an information extraction system for a clinical assistant.
From the conversation below, extract:

1. "facts": short, self-contained natural-language statements about the patient that are worth remembering across visits (symptoms, medications, allergies, diagnoses, preferences, appointments). Extract only information explicitly stated in the conversation. Do not invent, infer, or generalize.

2. "relations": entity relationships as {"source", "target", "type"} triples. Use consistent, general, timeless relationship types (prefer "takes" over "started_taking"). Relationships may only connect entities explicitly mentioned in the conversation.

Respond with a single JSON object of the form:
{"facts": ["..."], "relations": [{"source": "...", "target": "...", "type": "..."}]}

Return {"facts": [], "relations": []} when the conversation contains nothing worth remembering.`

// GraphExtractor extracts facts and relations with an LLM.
type GraphExtractor struct {
	llm llm.LLM
}

// NewGraphExtractor creates a GraphExtractor over the given client.
func NewGraphExtractor(client llm.LLM) *GraphExtractor {
	return &GraphExtractor{llm: client}
}

// Extract prompts the model with the submitted window and parses its JSON
// reply into scoped facts and relations.
func (e *GraphExtractor) Extract(ctx context.Context, sub *models.FactSubmission) ([]*models.Fact, []*models.Relation, error) {
	var conversation strings.Builder
	for _, turn := range sub.Turns {
		fmt.Fprintf(&conversation, "%s: %s\n", turn.Role, turn.Text)
	}

	prompt := fmt.Sprintf("%s\n\nConversation:\n%s", extractPrompt, conversation.String())
	resp, err := e.llm.GenerateContent(ctx, &models.GenerateContentRequest{
		Contents: []*models.Message{models.NewTextMessage(models.SpeakerUser, prompt)},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("extraction generation failed: %w", err)
	}

	var parsed struct {
		Facts     []string           `json:"facts"`
		Relations []*models.Relation `json:"relations"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &parsed); err != nil {
		return nil, nil, fmt.Errorf("cannot parse extraction response: %w", err)
	}

	now := time.Now().UTC()
	var facts []*models.Fact
	for _, content := range parsed.Facts {
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		facts = append(facts, &models.Fact{
			ID:             uuid.New().String(),
			PatientID:      sub.PatientID,
			Role:           sub.Role,
			ConversationID: sub.ConversationID,
			Content:        content,
			CreatedAt:      now,
		})
	}
	for _, rel := range parsed.Relations {
		rel.PatientID = sub.PatientID
		rel.Role = sub.Role
	}

	return facts, parsed.Relations, nil
}

// stripCodeFence unwraps a ```json ... ``` fenced reply, which models emit
// despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
