package llm

import (
	"context"
	"fmt"

	"Asclepius/internal/config"
	"Asclepius/internal/models"
)

// LLM is the narrow interface to the generation collaborator. The pipeline
// treats it as an opaque streaming text service.
type LLM interface {
	// GenerateContent runs one complete, non-streamed generation.
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
	// GenerateContentStream starts a generation and returns its chunk
	// stream. The channel closes after one terminal chunk carrying either
	// the usage summary or the stream error.
	GenerateContentStream(ctx context.Context, req *models.GenerateContentRequest) (<-chan *models.StreamChunk, error)
}

// NewClient builds the configured provider client.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.Gemini.Model == "" || cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires model and apiKey")
		}
		return NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
