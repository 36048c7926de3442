package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppInfo holds the basic application identity.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// GeminiConfig holds the Gemini provider settings.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // currently "gemini"
	Gemini   GeminiConfig `yaml:"gemini"`
}

// ChatConfig bounds the turn pipeline.
type ChatConfig struct {
	Addr           string `yaml:"addr"`           // listen address, e.g. ":8080"
	TurnTimeout    string `yaml:"turnTimeout"`    // wall-clock budget for one turn, e.g. "60s"
	PersistTimeout string `yaml:"persistTimeout"` // budget for each post-completion write, e.g. "15s"
}

// TurnTimeoutDuration parses the turn budget, falling back to 60s.
func (c ChatConfig) TurnTimeoutDuration() time.Duration {
	return parseDuration(c.TurnTimeout, 60*time.Second)
}

// PersistTimeoutDuration parses the persistence budget, falling back to 15s.
func (c ChatConfig) PersistTimeoutDuration() time.Duration {
	return parseDuration(c.PersistTimeout, 15*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ModelPrice is one row of the static per-model price table, in USD per
// million tokens.
type ModelPrice struct {
	Model            string  `yaml:"model"`
	InputPerMillion  float64 `yaml:"inputPerMillion"`
	OutputPerMillion float64 `yaml:"outputPerMillion"`
	CachedPerMillion float64 `yaml:"cachedPerMillion"`
}

// PricingConfig holds the price table used by the usage/cost logger.
type PricingConfig struct {
	Models []ModelPrice `yaml:"models"`
}

// ForModel returns the price row for a model name, or a zero row when the
// model is not listed (cost then derives to zero).
func (p PricingConfig) ForModel(name string) ModelPrice {
	for _, m := range p.Models {
		if m.Model == name {
			return m
		}
	}
	return ModelPrice{Model: name}
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"` // conversation collection name
}

// Neo4jConfig holds the Neo4j connection settings.
type Neo4jConfig struct {
	Uri      string `yaml:"uri"` // e.g. "bolt://localhost:7687"
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// KafkaConfig holds the Kafka connection settings. Topics are created on
// startup when missing.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topics  []string `yaml:"topics"`
	GroupID string   `yaml:"groupID"` // consumer group of the memory service
}

// DatabaseConfigs groups every backing store.
type DatabaseConfigs struct {
	MongoDB MongoConfig `yaml:"mongodb"`
	Neo4j   Neo4jConfig `yaml:"neo4j"`
	Kafka   KafkaConfig `yaml:"kafka"`
}

// RateLimiterConfig configures the token-bucket limiter on the chat API.
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig configures the breaker around the generation backend.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// MiddlewareConfig groups the resilience middleware settings.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	LLM        LLMConfig        `yaml:"llm"`
	Chat       ChatConfig       `yaml:"chat"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file '%s': %w", path, err)
	}
	return &cfg, nil
}
