package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"Asclepius/internal/chat_service/service"
	"Asclepius/internal/chat_service/store"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

// API provides handlers for the chat service.
type API struct {
	service *service.ChatService
	conv    store.ConversationStore
	logger  *logger.Logger
	checks  map[string]HealthCheck
}

// NewAPI creates a new API handler. checks maps backend names to their
// health probes; it may be nil.
func NewAPI(svc *service.ChatService, conv store.ConversationStore, logger *logger.Logger, checks map[string]HealthCheck) *API {
	return &API{service: svc, conv: conv, logger: logger, checks: checks}
}

// ChatHandler runs one turn and streams the reply as server-sent events.
// SSE headers are only written once the first chunk arrives, so validation
// and generation-start failures still go out as plain JSON errors.
func (a *API) ChatHandler(c *gin.Context) {
	traceID := TraceID(c)
	log := a.logger.WithTrace(traceID)

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	streaming := false
	emit := func(chunk *models.StreamChunk) error {
		if !streaming {
			c.Writer.Header().Set("Content-Type", "text/event-stream")
			c.Writer.Header().Set("Cache-Control", "no-cache")
			c.Writer.Header().Set("Connection", "keep-alive")
			c.Writer.WriteHeader(http.StatusOK)
			streaming = true
		}
		// Text chunks stream as deltas; the terminal chunk closes the
		// turn with the usage summary.
		if chunk.Text != "" {
			return writeEvent(c, gin.H{"delta": chunk.Text})
		}
		return writeEvent(c, gin.H{"done": true, "chatId": req.ChatID, "usage": chunk.Usage})
	}

	err := a.service.ProcessTurn(c.Request.Context(), traceID, &req, emit)
	if err != nil {
		if !streaming {
			a.writeTurnError(c, log, err)
			return
		}
		// The stream is already open; all we can do is end it.
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("turn failed mid-stream")
	}
}

func writeEvent(c *gin.Context, event gin.H) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("data: " + string(payload) + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// writeTurnError maps pipeline errors to machine-readable JSON failures.
func (a *API) writeTurnError(c *gin.Context, log *logger.Logger, err error) {
	var missing *service.MissingFieldError
	switch {
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{"error": missing.Error(), "field": missing.Field})
	case errors.Is(err, service.ErrMalformedRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
	case errors.Is(err, service.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role", "roles": []string{service.RoleDoctor, service.RoleNurse, service.RoleReceptionist}})
	default:
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed"})
	}
}

// CreateConversationHandler creates a conversation shell, optionally with
// partial identity. Later turns fill in whatever is missing.
func (a *API) CreateConversationHandler(c *gin.Context) {
	var payload struct {
		ChatID    string `json:"chatId"`
		Role      string `json:"role"`
		PatientID string `json:"patientId"`
		Title     string `json:"title"`
	}
	// An empty body is a valid "id-only" creation.
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}
	if payload.Role != "" && !service.ValidRole(payload.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	// A caller-chosen id merges into any existing record; otherwise the
	// server assigns one.
	if payload.ChatID == "" {
		payload.ChatID = uuid.NewString()
	}

	// Identity-only creation must never clobber an existing transcript.
	existing, err := a.conv.Get(c.Request.Context(), payload.ChatID)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to create conversation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        payload.ChatID,
		Role:      payload.Role,
		PatientID: payload.PatientID,
		Title:     payload.Title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []*models.Message{},
	}
	if existing != nil {
		conv.Messages = existing.Messages
		conv.CreatedAt = existing.CreatedAt
		if conv.Role == "" {
			conv.Role = existing.Role
		}
		if conv.PatientID == "" {
			conv.PatientID = existing.PatientID
		}
		if conv.Title == "" {
			conv.Title = existing.Title
		}
	}
	if err := a.conv.Upsert(c.Request.Context(), conv); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to create conversation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// ListConversationsHandler returns all conversation summaries, most
// recently updated first.
func (a *API) ListConversationsHandler(c *gin.Context) {
	summaries, err := a.conv.List(c.Request.Context())
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to list conversations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	if summaries == nil {
		summaries = []*models.ConversationSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// GetConversationHandler returns the stored conversation. Unknown ids get
// an empty message sequence, not an error.
func (a *API) GetConversationHandler(c *gin.Context) {
	id := c.Param("id")
	conv, err := a.conv.Get(c.Request.Context(), id)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to fetch conversation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch conversation"})
		return
	}
	if conv == nil {
		conv = &models.Conversation{ID: id, Messages: []*models.Message{}}
	}
	if conv.Messages == nil {
		conv.Messages = []*models.Message{}
	}
	c.JSON(http.StatusOK, conv)
}

// HealthzHandler pings the configured backends and reports per-backend
// status. Any failing backend turns the whole response 503.
func (a *API) HealthzHandler(c *gin.Context) {
	status := gin.H{}
	code := http.StatusOK
	for name, check := range a.checks {
		if err := check(c.Request.Context()); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	c.JSON(code, gin.H{"status": http.StatusText(code), "backends": status})
}
