package llm

import (
	"context"

	"Asclepius/internal/models"

	"Asclepius/pkg/circuitbreaker"
)

// breakerLLM guards a backend client with a circuit breaker so that a dead
// generation service fails fast instead of consuming the whole turn budget.
// Only call startup feeds the breaker; mid-stream errors belong to the
// individual turn.
type breakerLLM struct {
	inner LLM
	cb    circuitbreaker.CircuitBreaker
}

// WithBreaker wraps client with the given circuit breaker.
func WithBreaker(inner LLM, cb circuitbreaker.CircuitBreaker) LLM {
	return &breakerLLM{inner: inner, cb: cb}
}

func (b *breakerLLM) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.GenerateContent(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.GenerateContentResponse), nil
}

func (b *breakerLLM) GenerateContentStream(ctx context.Context, req *models.GenerateContentRequest) (<-chan *models.StreamChunk, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.GenerateContentStream(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(<-chan *models.StreamChunk), nil
}
