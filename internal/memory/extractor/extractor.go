package extractor

import (
	"context"

	"Asclepius/internal/models"
)

// Extractor turns a submitted turn window into fact statements and entity
// relationships.
type Extractor interface {
	Extract(ctx context.Context, sub *models.FactSubmission) ([]*models.Fact, []*models.Relation, error)
}
