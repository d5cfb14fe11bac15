package providers

import (
	"context"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

// OfferingIndex keeps the offering search index in sync
type OfferingIndex interface {
	Index(ctx context.Context, doc *entities.OfferingDocument) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query OfferingQuery) ([]*entities.OfferingDocument, error)
}

// OfferingQuery defines search parameters for offerings
type OfferingQuery struct {
	Text  string
	City  string
	Kind  entities.OfferingKind
	Limit int
}
