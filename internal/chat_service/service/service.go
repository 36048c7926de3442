package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Asclepius/internal/chat_service/store"
	"Asclepius/internal/llm"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"
)

// Retriever is the synchronous search face of the fact-graph collaborator.
type Retriever interface {
	Search(ctx context.Context, query, patientID, role string) ([]*models.RetrievedFact, error)
}

// FactSubmitter hands a completed turn to the fact-graph pipeline.
type FactSubmitter interface {
	SubmitTurns(ctx context.Context, conversationID, patientID, role string, messages []*models.Message) error
}

// UsageRecorder appends one usage/cost record per completed turn.
type UsageRecorder interface {
	Record(ctx context.Context, traceID, conversationID, patientID, role, model string, u models.TurnUsage, duration time.Duration)
}

// StreamHandler receives generation output as it is produced. It is called
// once per text chunk and once with the terminal usage chunk. A non-nil
// return means the caller is gone; the stream is then drained server-side.
type StreamHandler func(chunk *models.StreamChunk) error

// generationWindow bounds how many trailing turns are replayed to the model.
// Older context lives only in the transcript.
const generationWindow = 2

// ChatService drives one conversational turn: validate, retrieve patient
// history, assemble the prompt, stream the generation, then fan out the
// post-completion persistence without blocking the delivered response.
type ChatService struct {
	llm       llm.LLM
	retriever Retriever
	submitter FactSubmitter
	conv      store.ConversationStore
	usage     UsageRecorder
	logger    *logger.Logger

	model          string
	turnTimeout    time.Duration
	persistTimeout time.Duration

	inflight sync.WaitGroup
}

// NewChatService wires the turn pipeline over its collaborators. modelName
// keys the price table for usage records.
func NewChatService(client llm.LLM, modelName string, retriever Retriever, submitter FactSubmitter, conv store.ConversationStore, usage UsageRecorder, log *logger.Logger, turnTimeout, persistTimeout time.Duration) *ChatService {
	return &ChatService{
		llm:            client,
		model:          modelName,
		retriever:      retriever,
		submitter:      submitter,
		conv:           conv,
		usage:          usage,
		logger:         log,
		turnTimeout:    turnTimeout,
		persistTimeout: persistTimeout,
	}
}

// ProcessTurn runs one turn end to end. Validation errors and generation
// failures are returned; retrieval and persistence failures never are.
// Generated output is delivered through emit as it is produced.
func (s *ChatService) ProcessTurn(ctx context.Context, traceID string, req *models.ChatRequest, emit StreamHandler) error {
	turn, err := ValidateTurn(req)
	if err != nil {
		return err
	}

	log := s.logger.WithTrace(traceID).WithConversation(turn.ConversationID, turn.PatientID)
	started := time.Now()

	// One wall-clock deadline bounds the whole turn, retrieval included.
	// Generation runs detached from caller cancellation so a client
	// disconnect cannot abort it server-side; retrieval stays cancellable.
	deadline := started.Add(s.turnTimeout)
	genCtx, cancel := context.WithDeadline(context.WithoutCancel(ctx), deadline)
	defer cancel()
	retrievalCtx, retrievalCancel := context.WithDeadline(ctx, deadline)
	defer retrievalCancel()

	// Retrieval strictly precedes generation. A turn with no extractable
	// text skips it, which reads the same as "no history found".
	var facts []*models.RetrievedFact
	var retrievalErr error
	if turn.Query != "" {
		facts, retrievalErr = s.search(retrievalCtx, turn)
		if retrievalErr != nil {
			log.WithError(models.ErrorInfo{Message: retrievalErr.Error()}).Warn("fact retrieval failed, degrading prompt")
		}
	}

	genReq := &models.GenerateContentRequest{
		SystemInstruction: AssembleSystemInstruction(turn, facts, retrievalErr),
		Contents:          windowMessages(turn.Messages, generationWindow),
	}

	stream, err := s.llm.GenerateContentStream(genCtx, genReq)
	if err != nil {
		return fmt.Errorf("generation failed to start: %w", err)
	}

	var usage models.TurnUsage
	var reply string
	delivered := true
	for chunk := range stream {
		if chunk.Err != nil {
			return fmt.Errorf("generation failed: %w", chunk.Err)
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if chunk.Text != "" {
			reply += chunk.Text
		}
		if !delivered {
			continue
		}
		if err := emit(chunk); err != nil {
			// Caller gone; keep draining so persistence still runs.
			delivered = false
			log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("caller disconnected mid-stream, draining")
		}
	}

	// The stream is fully produced; everything from here is invisible to
	// the caller and each path fails independently.
	final := append(append([]*models.Message{}, turn.Messages...), models.NewTextMessage(models.SpeakerAssistant, reply))
	duration := time.Since(started)
	s.spawn(func(pctx context.Context) {
		conv := store.ConversationUpdate(turn.ConversationID, turn.Role, turn.PatientID, final, time.Now().UTC())
		if err := s.conv.Upsert(pctx, conv); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error()}).Error("transcript upsert failed")
		}
	})
	s.spawn(func(pctx context.Context) {
		if err := s.submitter.SubmitTurns(pctx, turn.ConversationID, turn.PatientID, turn.Role, final); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error()}).Error("fact submission failed")
		}
	})
	s.spawn(func(pctx context.Context) {
		s.usage.Record(pctx, traceID, turn.ConversationID, turn.PatientID, turn.Role, s.model, usage, duration)
	})
	return nil
}

// search runs the fact-graph query without trusting the backend to honor
// context cancellation: the turn regains control the moment ctx expires,
// and a late result from a hung backend is discarded.
func (s *ChatService) search(ctx context.Context, turn *Turn) ([]*models.RetrievedFact, error) {
	type result struct {
		facts []*models.RetrievedFact
		err   error
	}
	done := make(chan result, 1)
	go func() {
		facts, err := s.retriever.Search(ctx, turn.Query, turn.PatientID, turn.Role)
		done <- result{facts: facts, err: err}
	}()

	select {
	case r := <-done:
		return r.facts, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// spawn runs one post-completion persistence task on its own timeout,
// catching panics so a failing path can never take the handler down.
func (s *ChatService) spawn(task func(ctx context.Context)) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithPayload(map[string]interface{}{"panic": fmt.Sprint(r)}).Error("persistence task panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		task(ctx)
	}()
}

// Drain blocks until all in-flight persistence tasks have finished. Called
// on shutdown so buffered writes are not lost.
func (s *ChatService) Drain() {
	s.inflight.Wait()
}

// windowMessages keeps the trailing n turns, where a turn starts at a user
// message. With one user message in range this is just that message.
func windowMessages(messages []*models.Message, n int) []*models.Message {
	seen := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.SpeakerUser {
			seen++
			if seen == n {
				return messages[i:]
			}
		}
	}
	return messages
}
