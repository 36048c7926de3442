package neo4j

import (
	"context"
	"fmt"
	"log"
	"sync"

	"Asclepius/internal/config"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	instance *Neo4jClient
	once     sync.Once
	initErr  error
)

// Neo4jClient wraps the Neo4j driver together with its configuration.
type Neo4jClient struct {
	Driver neo4j.DriverWithContext
	Config *config.Neo4jConfig
}

// GetClient creates and returns the singleton Neo4j client, verifying
// connectivity on first use.
func GetClient(ctx context.Context, cfg *config.Neo4jConfig) (*Neo4jClient, error) {
	once.Do(func() {
		auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")

		driver, err := neo4j.NewDriverWithContext(cfg.Uri, auth)
		if err != nil {
			initErr = fmt.Errorf("cannot create Neo4j driver: %w", err)
			return
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			initErr = fmt.Errorf("cannot connect to Neo4j: %w", err)
			return
		}

		log.Println("connected to Neo4j")
		instance = &Neo4jClient{Driver: driver, Config: cfg}
	})
	return instance, initErr
}

// Close shuts down the driver.
func (c *Neo4jClient) Close(ctx context.Context) {
	if c.Driver != nil {
		if err := c.Driver.Close(ctx); err != nil {
			log.Printf("closing Neo4j driver: %v", err)
		}
	}
}

// HealthCheck verifies connectivity.
func (c *Neo4jClient) HealthCheck(ctx context.Context) error {
	return c.Driver.VerifyConnectivity(ctx)
}

// ExecuteWrite runs work inside a managed write transaction.
func (c *Neo4jClient) ExecuteWrite(ctx context.Context, work func(tx neo4j.ManagedTransaction) (interface{}, error)) (interface{}, error) {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.Config.Database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("Neo4j write transaction failed: %w", err)
	}
	return result, nil
}

// ExecuteRead runs work inside a managed read transaction.
func (c *Neo4jClient) ExecuteRead(ctx context.Context, work func(tx neo4j.ManagedTransaction) (interface{}, error)) (interface{}, error) {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.Config.Database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("Neo4j read transaction failed: %w", err)
	}
	return result, nil
}

// EnsureFulltextIndex creates the named full-text index over the given
// label/property if it does not already exist.
func (c *Neo4jClient) EnsureFulltextIndex(ctx context.Context, name, label, property string) error {
	query := fmt.Sprintf(
		"CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [n.%s]",
		name, label, property,
	)
	_, err := c.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return nil, result.Err()
	})
	return err
}
