package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	neo4jdb "Asclepius/internal/database/neo4j"
	"Asclepius/internal/models"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// FactIndexName is the full-text index over Fact content.
const FactIndexName = "factContent"

// Neo4jStore implements GraphStore on Neo4j. Facts are (:Fact) nodes
// carrying patient_id and role properties; relations are edges between
// (:Entity) nodes carrying the same scope.
type Neo4jStore struct {
	client *neo4jdb.Neo4jClient
}

// NewNeo4jStore creates a Neo4jStore and ensures the full-text index exists.
func NewNeo4jStore(ctx context.Context, client *neo4jdb.Neo4jClient) (*Neo4jStore, error) {
	if err := client.EnsureFulltextIndex(ctx, FactIndexName, "Fact", "content"); err != nil {
		return nil, fmt.Errorf("cannot ensure fact index: %w", err)
	}
	return &Neo4jStore{client: client}, nil
}

// SearchFacts queries the full-text index and filters to the patient+role
// scope. Ranking is the index score, descending.
func (s *Neo4jStore) SearchFacts(ctx context.Context, query, patientID, role string, limit int) ([]*models.RetrievedFact, error) {
	term := sanitizeFulltextQuery(query)
	if term == "" {
		return nil, nil
	}

	cypher := `
	CALL db.index.fulltext.queryNodes($index, $query) YIELD node, score
	WHERE node.patient_id = $patient_id AND node.role = $role
	RETURN node.content AS content, score
	ORDER BY score DESC
	LIMIT $limit`

	params := map[string]interface{}{
		"index":      FactIndexName,
		"query":      term,
		"patient_id": patientID,
		"role":       role,
		"limit":      limit,
	}

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var facts []*models.RetrievedFact
		for res.Next(ctx) {
			record := res.Record()
			content, _ := record.Get("content")
			score, _ := record.Get("score")
			fact := &models.RetrievedFact{}
			if c, ok := content.(string); ok {
				fact.Content = c
			}
			if sc, ok := score.(float64); ok {
				fact.Score = sc
			}
			facts = append(facts, fact)
		}
		return facts, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fact search failed: %w", err)
	}
	return result.([]*models.RetrievedFact), nil
}

// AddFacts merges fact nodes. Content is the merge key within a scope so
// re-ingesting the same window does not duplicate facts.
func (s *Neo4jStore) AddFacts(ctx context.Context, facts []*models.Fact) error {
	for _, fact := range facts {
		cypher := `
		MERGE (f:Fact {content: $content, patient_id: $patient_id, role: $role})
		ON CREATE SET f.id = $id, f.conversation_id = $conversation_id, f.created_at = $created_at`
		params := map[string]interface{}{
			"content":         fact.Content,
			"patient_id":      fact.PatientID,
			"role":            fact.Role,
			"id":              fact.ID,
			"conversation_id": fact.ConversationID,
			"created_at":      fact.CreatedAt.Format(time.RFC3339),
		}
		_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
			res, err := tx.Run(ctx, cypher, params)
			if err != nil {
				return nil, err
			}
			return nil, res.Err()
		})
		if err != nil {
			return fmt.Errorf("cannot add fact: %w", err)
		}
	}
	return nil
}

// AddRelations merges entity nodes and a typed edge per relation.
func (s *Neo4jStore) AddRelations(ctx context.Context, relations []*models.Relation) error {
	for _, rel := range relations {
		relType := sanitizeRelationType(rel.Type)
		if relType == "" || rel.Source == "" || rel.Target == "" {
			continue
		}
		cypher := fmt.Sprintf(`
		MERGE (source:Entity {name: $source_name, patient_id: $patient_id, role: $role})
		MERGE (target:Entity {name: $target_name, patient_id: $patient_id, role: $role})
		MERGE (source)-[:%s]->(target)`, relType)
		params := map[string]interface{}{
			"source_name": rel.Source,
			"target_name": rel.Target,
			"patient_id":  rel.PatientID,
			"role":        rel.Role,
		}
		_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
			res, err := tx.Run(ctx, cypher, params)
			if err != nil {
				return nil, err
			}
			return nil, res.Err()
		})
		if err != nil {
			return fmt.Errorf("cannot add relation: %w", err)
		}
	}
	return nil
}

// sanitizeRelationType maps free-form extracted types onto a safe Cypher
// relationship identifier. Relation types cannot be parameterized.
func sanitizeRelationType(t string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(t)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// sanitizeFulltextQuery strips Lucene operators so user text cannot break
// the index query syntax.
func sanitizeFulltextQuery(q string) string {
	var b strings.Builder
	for _, r := range q {
		if strings.ContainsRune(`+-&|!(){}[]^"~*?:\/`, r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
