package repositories

import (
	"context"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

// EventRepository defines the interface for organizer event operations
type EventRepository interface {
	// Create inserts the event with its doctors and staff. The organizer's
	// last_event_at is claimed atomically; if another event was created within
	// window the call fails with a VALIDATION error and nothing is written.
	Create(ctx context.Context, event *entities.Event, window time.Duration) error

	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, id string) (*entities.Event, error)

	// ListByOrganizer retrieves an organizer's events
	ListByOrganizer(ctx context.Context, organizerID string) ([]*entities.Event, error)

	// DeleteExpired removes the organizer's events that ended at or before now,
	// together with their members and phone rows. It returns the removed event ids.
	DeleteExpired(ctx context.Context, organizerID string, now time.Time) ([]string, error)
}

// VisitSlotRepository defines the interface for visit slot operations
type VisitSlotRepository interface {
	Create(ctx context.Context, slot *entities.VisitSlot) error
	GetByID(ctx context.Context, id string) (*entities.VisitSlot, error)

	// LatestByProvider returns the slot with the latest end time
	LatestByProvider(ctx context.Context, providerID string) (*entities.VisitSlot, error)
}

// ServiceRepository defines the interface for lab and hospital catalog operations
type ServiceRepository interface {
	Create(ctx context.Context, service *entities.Service) error
	GetByID(ctx context.Context, id string) (*entities.Service, error)
	ListByProvider(ctx context.Context, providerID string) ([]*entities.Service, error)
	Delete(ctx context.Context, providerID, serviceID string) error
}
