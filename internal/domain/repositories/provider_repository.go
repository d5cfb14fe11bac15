package repositories

import (
	"context"
	"errors"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

// ErrStaleVersion is returned by compare-and-swap writes when the row changed since it was read
var ErrStaleVersion = errors.New("stale provider version")

// ProviderRepository defines the interface for provider data operations
type ProviderRepository interface {
	// Create inserts the provider and registers its phone number in one transaction
	Create(ctx context.Context, provider *entities.Provider) error

	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id string) (*entities.Provider, error)

	// GetByIDs retrieves providers in bulk; missing ids are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error)

	// List retrieves providers matching the filter
	List(ctx context.Context, filter ProviderFilter) ([]*entities.Provider, error)

	// UpdateLedger writes provider.Ledger if provider.Version still matches the stored row.
	// On success provider.Version is advanced; otherwise ErrStaleVersion is returned.
	UpdateLedger(ctx context.Context, provider *entities.Provider) error
}

// ProviderFilter defines filters for listing providers
type ProviderFilter struct {
	Types           []entities.ProviderType
	PaidStatus      entities.PaidStatus
	Suspended       *bool
	PositiveBalance bool
	Limit           int
	Offset          int
}
