package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"Asclepius/internal/config"

	"github.com/segmentio/kafka-go"
)

// Topic names shared by the chat and memory services.
const (
	TopicFactIngest = "fact_ingest"
	TopicTurnUsage  = "turn_usage"
)

// KafkaClient holds the administrative connection and the broker
// configuration. Writers and readers are created per topic from it.
type KafkaClient struct {
	Conn   *kafka.Conn
	Config *config.KafkaConfig
}

var (
	client  *KafkaClient
	once    sync.Once
	initErr error
)

// GetClient initializes the singleton Kafka client. On first use it dials
// the first broker and creates any configured topics that do not exist.
func GetClient(cfg *config.KafkaConfig) (*KafkaClient, error) {
	once.Do(func() {
		if len(cfg.Brokers) == 0 {
			initErr = fmt.Errorf("no Kafka brokers configured")
			return
		}

		conn, err := kafka.Dial("tcp", cfg.Brokers[0])
		if err != nil {
			initErr = fmt.Errorf("cannot dial Kafka: %w", err)
			return
		}

		partitions, err := conn.ReadPartitions()
		if err != nil {
			initErr = fmt.Errorf("cannot read Kafka partitions: %w", err)
			conn.Close()
			return
		}
		existing := make(map[string]struct{})
		for _, p := range partitions {
			existing[p.Topic] = struct{}{}
		}

		// The pipeline topics are always ensured, plus any extras from config.
		topics := append([]string{TopicFactIngest, TopicTurnUsage}, cfg.Topics...)
		var toCreate []kafka.TopicConfig
		for _, topic := range topics {
			if _, ok := existing[topic]; !ok {
				existing[topic] = struct{}{}
				toCreate = append(toCreate, kafka.TopicConfig{
					Topic:             topic,
					NumPartitions:     1,
					ReplicationFactor: 1,
				})
			}
		}
		if len(toCreate) > 0 {
			if err := conn.CreateTopics(toCreate...); err != nil {
				initErr = fmt.Errorf("cannot create Kafka topics: %w", err)
				conn.Close()
				return
			}
			log.Printf("created %d Kafka topics", len(toCreate))
		}

		log.Println("connected to Kafka")
		client = &KafkaClient{Conn: conn, Config: cfg}
	})

	return client, initErr
}

// NewWriter returns a writer bound to one topic.
func (c *KafkaClient) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

// NewReader returns a consumer-group reader bound to one topic.
func (c *KafkaClient) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.Config.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    10e3,
		MaxBytes:    10e6,
		MaxAttempts: 10,
		Dialer: &kafka.Dialer{
			Timeout: 10 * time.Second,
		},
	})
}

// Close shuts down the administrative connection.
func (c *KafkaClient) Close() error {
	if c == nil || c.Conn == nil {
		return nil
	}
	if err := c.Conn.Close(); err != nil {
		return fmt.Errorf("closing Kafka connection: %w", err)
	}
	return nil
}

// HealthCheck verifies the broker is reachable.
func (c *KafkaClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return fmt.Errorf("kafka client is not initialized")
	}
	_, err := c.Conn.Controller()
	return err
}
