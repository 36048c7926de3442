package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Asclepius/internal/config"
	"Asclepius/internal/database/kafka"
	"Asclepius/internal/database/neo4j"
	"Asclepius/internal/llm"
	"Asclepius/internal/memory/consumer"
	"Asclepius/internal/memory/extractor"
	"Asclepius/internal/memory/service"
	"Asclepius/internal/memory/store"
	"Asclepius/internal/models"
	"Asclepius/pkg/logger"

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
	serviceLogger := logger.New("memory_service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	neo4jClient, err := neo4j.GetClient(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Neo4j")
	}
	defer neo4jClient.Close(context.Background())

	graphStore, err := store.NewNeo4jStore(ctx, neo4jClient)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to prepare fact store")
	}

	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Kafka")
	}
	defer kafkaClient.Close()

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create LLM client")
	}

	graphExtractor := extractor.NewGraphExtractor(llmClient)
	memoryService := service.NewMemoryService(graphExtractor, graphStore, serviceLogger)

	reader := kafkaClient.NewReader(kafka.TopicFactIngest, cfg.Databases.Kafka.GroupID)
	kafkaConsumer := consumer.NewKafkaConsumer(reader, memoryService, serviceLogger)
	kafkaConsumer.Start(ctx)

	serviceLogger.Info("Memory service started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cancel()
	if err := kafkaConsumer.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka consumer")
	}

	serviceLogger.Info("Memory service stopped")
}
