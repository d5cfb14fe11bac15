package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

// CommissionRate is the platform's cut of a completed booking's fee
const CommissionRate = 0.20

// FeeSource is the fee-bearing offering behind a booking. The concrete
// variants below are the only implementations.
type FeeSource interface {
	Fee() float64
	Kind() entities.OfferingKind
	isFeeSource()
}

// LabServiceFee is a lab catalog entry
type LabServiceFee struct{ Service *entities.Service }

// HospitalServiceFee is a hospital catalog entry
type HospitalServiceFee struct{ Service *entities.Service }

// VisitSlotFee is a visit doctor's slot; the fee is the doctor fee
type VisitSlotFee struct{ Slot *entities.VisitSlot }

// OrganizerEventFee is an organizer event. It carries no fee unless organizer
// commission is enabled, in which case the entry fee is charged.
type OrganizerEventFee struct {
	EventID    string
	EntryFee   float64
	Chargeable bool
}

func (f LabServiceFee) Fee() float64                     { return f.Service.Fee }
func (f LabServiceFee) Kind() entities.OfferingKind      { return entities.OfferingKindService }
func (LabServiceFee) isFeeSource()                       {}
func (f HospitalServiceFee) Fee() float64                { return f.Service.Fee }
func (f HospitalServiceFee) Kind() entities.OfferingKind { return entities.OfferingKindService }
func (HospitalServiceFee) isFeeSource()                  {}
func (f VisitSlotFee) Fee() float64                      { return f.Slot.DoctorFee }
func (f VisitSlotFee) Kind() entities.OfferingKind       { return entities.OfferingKindVisitSlot }
func (VisitSlotFee) isFeeSource()                        {}
func (OrganizerEventFee) Kind() entities.OfferingKind    { return entities.OfferingKindEvent }
func (OrganizerEventFee) isFeeSource()                   {}

func (f OrganizerEventFee) Fee() float64 {
	if !f.Chargeable {
		return 0
	}
	return f.EntryFee
}

// Commission returns the platform cut for a fee source, rounded to cents
func Commission(src FeeSource) float64 {
	return entities.RoundMoney(src.Fee() * CommissionRate)
}

// FeeResolver locates the fee source for an offering owned by provider
type FeeResolver func(ctx context.Context, provider *entities.Provider, offeringID string) (FeeSource, error)

// FeeSourceRegistry dispatches fee lookups by provider type. Offering owners
// register their resolver at wiring time so settlement never imports them.
type FeeSourceRegistry struct {
	mu        sync.RWMutex
	resolvers map[entities.ProviderType]FeeResolver
}

// NewFeeSourceRegistry creates an empty registry
func NewFeeSourceRegistry() *FeeSourceRegistry {
	return &FeeSourceRegistry{resolvers: make(map[entities.ProviderType]FeeResolver)}
}

// Register installs the resolver for a provider type, replacing any previous one
func (r *FeeSourceRegistry) Register(providerType entities.ProviderType, resolver FeeResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[providerType] = resolver
}

// Resolve returns the fee source of offeringID for provider
func (r *FeeSourceRegistry) Resolve(ctx context.Context, provider *entities.Provider, offeringID string) (FeeSource, error) {
	r.mu.RLock()
	resolver, ok := r.resolvers[provider.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Sprintf("no fee source registered for provider type %q", provider.Type), nil)
	}
	return resolver(ctx, provider, offeringID)
}
