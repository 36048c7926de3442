package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Asclepius/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini implements LLM against the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client for the given model.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("cannot create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// session prepares a chat session for one request: the window's older
// messages become session history, the final message is what gets sent.
func (g *Gemini) session(req *models.GenerateContentRequest) (*genai.ChatSession, []genai.Part, error) {
	if len(req.Contents) == 0 {
		return nil, nil, fmt.Errorf("empty content window")
	}

	m := g.client.GenerativeModel(g.model)
	if req.SystemInstruction != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}

	cs := m.StartChat()
	for _, msg := range req.Contents[:len(req.Contents)-1] {
		cs.History = append(cs.History, toGenaiContent(msg))
	}

	parts := toGenaiParts(req.Contents[len(req.Contents)-1])
	if len(parts) == 0 {
		parts = []genai.Part{genai.Text("")}
	}
	return cs, parts, nil
}

// GenerateContent runs one blocking generation.
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	cs, parts, err := g.session(req)
	if err != nil {
		return nil, err
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return nil, err
	}

	return &models.GenerateContentResponse{
		Text:  textOf(resp),
		Usage: fromUsageMetadata(resp.UsageMetadata),
	}, nil
}

// GenerateContentStream starts a streamed generation. The goroutine owns
// the iterator and always delivers a terminal chunk before closing.
func (g *Gemini) GenerateContentStream(ctx context.Context, req *models.GenerateContentRequest) (<-chan *models.StreamChunk, error) {
	cs, parts, err := g.session(req)
	if err != nil {
		return nil, err
	}

	iter := cs.SendMessageStream(ctx, parts...)
	ch := make(chan *models.StreamChunk)

	go func() {
		defer close(ch)
		var usage *models.TurnUsage
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				ch <- &models.StreamChunk{Usage: usage}
				return
			}
			if err != nil {
				ch <- &models.StreamChunk{Err: err}
				return
			}
			if resp.UsageMetadata != nil {
				usage = fromUsageMetadata(resp.UsageMetadata)
			}
			if text := textOf(resp); text != "" {
				ch <- &models.StreamChunk{Text: text}
			}
		}
	}()

	return ch, nil
}

func toGenaiRole(role models.SpeakerRole) string {
	if role == models.SpeakerAssistant {
		return "model"
	}
	return "user"
}

func toGenaiContent(msg *models.Message) *genai.Content {
	return &genai.Content{
		Role:  toGenaiRole(msg.Role),
		Parts: toGenaiParts(msg),
	}
}

func toGenaiParts(msg *models.Message) []genai.Part {
	var parts []genai.Part
	for _, p := range msg.Parts {
		if p == nil {
			continue
		}
		switch {
		case p.Text != "":
			parts = append(parts, genai.Text(p.Text))
		case p.InlineData != nil:
			parts = append(parts, genai.Blob{
				MIMEType: p.InlineData.MIMEType,
				Data:     p.InlineData.Data,
			})
		case p.FileData != nil:
			parts = append(parts, genai.FileData{
				MIMEType: p.FileData.MIMEType,
				URI:      p.FileData.FileURI,
			})
		}
	}
	return parts
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

func fromUsageMetadata(u *genai.UsageMetadata) *models.TurnUsage {
	if u == nil {
		return nil
	}
	usage := &models.TurnUsage{}
	if u.PromptTokenCount > 0 {
		usage.InputTokens = int64Ptr(int64(u.PromptTokenCount))
	}
	if u.CandidatesTokenCount > 0 {
		usage.OutputTokens = int64Ptr(int64(u.CandidatesTokenCount))
	}
	if u.CachedContentTokenCount > 0 {
		usage.CachedTokens = int64Ptr(int64(u.CachedContentTokenCount))
	}
	return usage
}

func int64Ptr(v int64) *int64 { return &v }
