package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Asclepius/internal/chat_service/service"
	"Asclepius/internal/chat_service/store"
	"Asclepius/internal/config"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"

	"github.com/gin-gonic/gin"
)

type stubLLM struct {
	calls int
}

func (s *stubLLM) GenerateContent(context.Context, *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	return nil, nil
}

func (s *stubLLM) GenerateContentStream(context.Context, *models.GenerateContentRequest) (<-chan *models.StreamChunk, error) {
	s.calls++
	out := int64(12)
	ch := make(chan *models.StreamChunk, 3)
	ch <- &models.StreamChunk{Text: "Take with "}
	ch <- &models.StreamChunk{Text: "food."}
	ch <- &models.StreamChunk{Usage: &models.TurnUsage{OutputTokens: &out}}
	close(ch)
	return ch, nil
}

type stubRetriever struct{ calls int }

func (s *stubRetriever) Search(context.Context, string, string, string) ([]*models.RetrievedFact, error) {
	s.calls++
	return nil, nil
}

type stubSubmitter struct{ calls int }

func (s *stubSubmitter) SubmitTurns(context.Context, string, string, string, []*models.Message) error {
	s.calls++
	return nil
}

type stubUsage struct{ calls int }

func (s *stubUsage) Record(context.Context, string, string, string, string, string, models.TurnUsage, time.Duration) {
	s.calls++
}

type fixture struct {
	router    *gin.Engine
	svc       *service.ChatService
	conv      *store.MemoryConversationStore
	llm       *stubLLM
	retriever *stubRetriever
	submitter *stubSubmitter
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	log := logger.New("chat_service_test")

	f := &fixture{
		conv:      store.NewMemoryConversationStore(),
		llm:       &stubLLM{},
		retriever: &stubRetriever{},
		submitter: &stubSubmitter{},
	}
	f.svc = service.NewChatService(f.llm, "gemini-2.5-flash", f.retriever, f.submitter, f.conv, &stubUsage{}, log, time.Minute, time.Minute)
	f.router = SetupRouter(NewAPI(f.svc, f.conv, log, nil), config.MiddlewareConfig{}, log)
	return f
}

func TestChatMissingPatientIDRejectedBeforeAnyCall(t *testing.T) {
	f := newFixture()
	body := `{"messages":[{"role":"user","parts":[{"text":"hello"}]}],"chatId":"c1","role":"doctor"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("non-JSON error body: %v", err)
	}
	if resp["field"] != "patientId" {
		t.Errorf("error field = %q, want patientId", resp["field"])
	}
	if f.retriever.calls != 0 || f.llm.calls != 0 || f.submitter.calls != 0 {
		t.Error("rejected request made external calls")
	}
}

func TestChatStreamsReply(t *testing.T) {
	f := newFixture()
	body := `{"messages":[{"role":"user","parts":[{"text":"dosage for ibuprofen?"}]}],"chatId":"c1","role":"doctor","patientId":"p1"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	f.router.ServeHTTP(w, req)
	f.svc.Drain()

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); !strings.Contains(got, "text/event-stream") {
		t.Errorf("Content-Type = %q", got)
	}
	out := w.Body.String()
	if !strings.Contains(out, `"delta":"Take with "`) || !strings.Contains(out, `"delta":"food."`) {
		t.Errorf("stream missing delta events:\n%s", out)
	}
	if !strings.Contains(out, `"done":true`) {
		t.Errorf("stream missing terminal event:\n%s", out)
	}

	conv, _ := f.conv.Get(context.Background(), "c1")
	if conv == nil || len(conv.Messages) != 2 {
		t.Fatalf("transcript not persisted after stream: %+v", conv)
	}
	if f.submitter.calls != 1 {
		t.Errorf("fact submissions = %d, want 1", f.submitter.calls)
	}
}

func TestChatInvalidRole(t *testing.T) {
	f := newFixture()
	body := `{"messages":[{"role":"user","parts":[{"text":"hi"}]}],"chatId":"c1","role":"janitor","patientId":"p1"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid role") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestGetUnknownConversationReturnsEmptySequence(t *testing.T) {
	f := newFixture()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/nope", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var conv models.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if conv.ID != "nope" || len(conv.Messages) != 0 {
		t.Errorf("conv = %+v, want empty sequence under requested id", conv)
	}
}

func TestCreateConversationWithChosenID(t *testing.T) {
	f := newFixture()

	// Seed a conversation that already has a transcript.
	seed := store.ConversationUpdate("c42", "doctor", "", []*models.Message{
		models.NewTextMessage(models.SpeakerUser, "earlier question"),
		models.NewTextMessage(models.SpeakerAssistant, "earlier answer"),
	}, time.Now().UTC())
	_ = f.conv.Upsert(context.Background(), seed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"chatId":"c42","patientId":"p7"}`))
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var created models.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if created.ID != "c42" {
		t.Errorf("ID = %q, want the caller-chosen id", created.ID)
	}

	conv, _ := f.conv.Get(context.Background(), "c42")
	if conv.PatientID != "p7" || conv.Role != "doctor" {
		t.Errorf("identity merge = (%q, %q), want (p7, doctor)", conv.PatientID, conv.Role)
	}
	if len(conv.Messages) != 2 {
		t.Errorf("messages = %d, identity-only create must not clobber the transcript", len(conv.Messages))
	}
}

func TestHealthzReportsBackendFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.New("chat_service_test")
	conv := store.NewMemoryConversationStore()
	svc := service.NewChatService(&stubLLM{}, "gemini-2.5-flash", &stubRetriever{}, &stubSubmitter{}, conv, &stubUsage{}, log, time.Minute, time.Minute)
	checks := map[string]HealthCheck{
		"mongodb": func(context.Context) error { return nil },
		"kafka":   func(context.Context) error { return errors.New("broker unreachable") },
	}
	router := SetupRouter(NewAPI(svc, conv, log, checks), config.MiddlewareConfig{}, log)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when a backend is down", w.Code)
	}
	if !strings.Contains(w.Body.String(), "broker unreachable") {
		t.Errorf("body missing failing backend detail: %s", w.Body.String())
	}
}

func TestCreateThenListConversations(t *testing.T) {
	f := newFixture()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"role":"nurse","patientId":"p9"}`))
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var summaries []*models.ConversationSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Role != "nurse" || summaries[0].PatientID != "p9" {
		t.Errorf("summaries = %+v", summaries)
	}
}
