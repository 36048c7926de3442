package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Asclepius/internal/chat_service/api"
	"Asclepius/internal/chat_service/publisher"
	"Asclepius/internal/chat_service/service"
	"Asclepius/internal/chat_service/store"
	"Asclepius/internal/config"
	"Asclepius/internal/database/kafka"
	"Asclepius/internal/database/mongo"
	"Asclepius/internal/database/neo4j"
	"Asclepius/internal/llm"
	"Asclepius/internal/memory"
	memorystore "Asclepius/internal/memory/store"
	"Asclepius/internal/models"
	"Asclepius/internal/usage"
	"Asclepius/pkg/circuitbreaker"
	"Asclepius/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.Init(logLevel)
	serviceLogger := logger.New("chat_service")

	ctx := context.Background()

	// Backing stores.
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)
	conversations := store.NewMongoConversationStore(db, cfg.Databases.MongoDB.Collection)
	serviceLogger.Info("Successfully connected to MongoDB")

	neo4jClient, err := neo4j.GetClient(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Neo4j")
	}
	graphStore, err := memorystore.NewNeo4jStore(ctx, neo4jClient)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to prepare fact store")
	}

	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Kafka")
	}

	// Publishers for the two async side channels.
	factPublisher := publisher.NewFactPublisher(kafkaClient.NewWriter(kafka.TopicFactIngest), serviceLogger)
	usagePublisher := publisher.NewUsagePublisher(kafkaClient.NewWriter(kafka.TopicTurnUsage), serviceLogger)

	// Generation client, optionally wrapped by the circuit breaker.
	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create LLM client")
	}
	if cfg.Middleware.CircuitBreaker.Enabled {
		timeout, perr := time.ParseDuration(cfg.Middleware.CircuitBreaker.Timeout)
		if perr != nil {
			timeout = 30 * time.Second
		}
		cb := circuitbreaker.New(cfg.Middleware.CircuitBreaker.FailureThreshold, cfg.Middleware.CircuitBreaker.SuccessThreshold, timeout)
		llmClient = llm.WithBreaker(llmClient, cb)
	}

	memoryClient := memory.NewClient(graphStore, factPublisher)
	usageLogger := usage.NewLogger(cfg.Pricing, usagePublisher, serviceLogger)

	chatService := service.NewChatService(
		llmClient,
		cfg.LLM.Gemini.Model,
		memoryClient,
		memoryClient,
		conversations,
		usageLogger,
		serviceLogger,
		cfg.Chat.TurnTimeoutDuration(),
		cfg.Chat.PersistTimeoutDuration(),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	checks := map[string]api.HealthCheck{
		"mongodb": mongo.HealthCheck,
		"neo4j":   neo4jClient.HealthCheck,
		"kafka":   kafkaClient.HealthCheck,
	}
	router := api.SetupRouter(api.NewAPI(chatService, conversations, serviceLogger, checks), cfg.Middleware, serviceLogger)

	srv := &http.Server{
		Addr:    cfg.Chat.Addr,
		Handler: router,
	}

	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Server forced to shutdown")
	}

	// Let in-flight transcript, fact and usage writes land before closing.
	chatService.Drain()

	if err := factPublisher.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing fact publisher")
	}
	if err := usagePublisher.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing usage publisher")
	}
	neo4jClient.Close(context.Background())
	if err := mongo.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Server gracefully stopped")
}
