package store

import (
	"context"

	"Asclepius/internal/models"
)

// GraphStore is the interface to the fact-graph backend. Every operation is
// scoped by patient and role; facts recorded under one role are invisible
// to every other role, even for the same patient.
type GraphStore interface {
	// SearchFacts returns at most limit facts relevant to query, ranked
	// most-relevant first.
	SearchFacts(ctx context.Context, query, patientID, role string, limit int) ([]*models.RetrievedFact, error)
	// AddFacts stores extracted fact statements.
	AddFacts(ctx context.Context, facts []*models.Fact) error
	// AddRelations stores extracted entity relationships.
	AddRelations(ctx context.Context, relations []*models.Relation) error
}
