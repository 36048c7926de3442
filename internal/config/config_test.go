package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
app:
  name: asclepius
  environment: development
logger:
  level: debug
llm:
  provider: gemini
  gemini:
    apiKey: test-key
    model: gemini-2.0-flash
chat:
  addr: ":8080"
  turnTimeout: 45s
pricing:
  models:
    - model: gemini-2.0-flash
      inputPerMillion: 0.10
      outputPerMillion: 0.40
      cachedPerMillion: 0.025
databases:
  mongodb:
    address: mongodb://localhost:27017
    database: asclepius
    collection: conversations
  neo4j:
    uri: bolt://localhost:7687
    username: neo4j
    password: secret
  kafka:
    brokers: ["localhost:9092"]
    topics: ["fact_ingest", "turn_usage"]
    groupID: memory-service
middleware:
  rateLimiter:
    enabled: true
    rate: 10
    capacity: 20
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LLM.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini", cfg.LLM.Provider)
	}
	if cfg.LLM.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q", cfg.LLM.Gemini.Model)
	}
	if got := cfg.Chat.TurnTimeoutDuration(); got != 45*time.Second {
		t.Errorf("turn timeout = %v, want 45s", got)
	}
	if got := cfg.Chat.PersistTimeoutDuration(); got != 15*time.Second {
		t.Errorf("persist timeout default = %v, want 15s", got)
	}
	if len(cfg.Databases.Kafka.Topics) != 2 {
		t.Errorf("topics = %v", cfg.Databases.Kafka.Topics)
	}
	if !cfg.Middleware.RateLimiter.Enabled {
		t.Error("rate limiter should be enabled")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPricingForModel(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	price := cfg.Pricing.ForModel("gemini-2.0-flash")
	if price.InputPerMillion != 0.10 || price.OutputPerMillion != 0.40 {
		t.Errorf("unexpected price row: %+v", price)
	}

	unknown := cfg.Pricing.ForModel("no-such-model")
	if unknown.InputPerMillion != 0 || unknown.OutputPerMillion != 0 {
		t.Errorf("unknown model should price to zero: %+v", unknown)
	}
}
