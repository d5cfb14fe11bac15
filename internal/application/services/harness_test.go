package services_test

import (
	"context"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// harness wires every service over one memStore with a shared, settable clock
type harness struct {
	store      *memStore
	bus        *MockEventBus
	registry   *services.FeeSourceRegistry
	identity   *services.IdentityService
	offerings  *services.OfferingService
	bookings   *services.BookingService
	settlement *services.SettlementService
	ledger     *services.LedgerService
	suspension *services.SuspensionSweeper
	expiry     *services.ExpirySweeper
	now        time.Time
}

type harnessOptions struct {
	organizerCommission bool
	index               providers.OfferingIndex
}

func newHarness(opts harnessOptions) *harness {
	store := newMemStore()
	bus := NewMockEventBus()
	registry := services.NewFeeSourceRegistry()
	h := &harness{store: store, bus: bus, registry: registry, now: t0}
	clock := func() time.Time { return h.now }

	providerRepo := memProviders{store}
	h.identity = services.NewIdentityService(memPatients{store}, providerRepo, memRegistry{store})
	h.offerings = services.NewOfferingService(
		providerRepo, memEvents{store}, memSlots{store}, memServices{store}, memMembers{store}, memBookings{store},
		opts.index, registry, 24*time.Hour, opts.organizerCommission,
	)
	h.offerings.SetClock(clock)
	h.bookings = services.NewBookingService(memBookings{store}, memPatients{store}, providerRepo, h.offerings, bus)
	h.bookings.SetClock(clock)
	h.settlement = services.NewSettlementService(memSettlement{store}, providerRepo, registry, bus, nil)
	h.ledger = services.NewLedgerService(providerRepo, bus, true, 100)
	h.suspension = services.NewSuspensionSweeper(providerRepo, memSlots{store}, bus, nil, 5)
	h.suspension.SetClock(clock)
	h.expiry = services.NewExpirySweeper(providerRepo, memEvents{store}, opts.index, bus, nil)
	h.expiry.SetClock(clock)
	return h
}

// labWithService seeds a lab offering one service at fee and a booking of it by a patient
func (h *harness) labWithService(id string, fee float64) (provider *entities.Provider, serviceID, patientID string) {
	provider = h.store.seedProvider(&entities.Provider{ID: id, Type: entities.ProviderTypeLab, Name: "Lab " + id})
	serviceID = id + "-svc"
	patientID = id + "-patient"
	h.store.seedService(&entities.Service{ID: serviceID, ProviderID: id, Name: "Blood test", Fee: fee})
	h.store.seedPatient(&entities.Patient{ID: patientID, Name: "Asha"})
	h.store.seedBooking(&entities.Booking{
		ID: id + "-booking", PatientID: patientID, ProviderID: id, ProviderType: entities.ProviderTypeLab,
		ServiceID: serviceID, Status: entities.BookingStatusPending,
	})
	return provider, serviceID, patientID
}

func statusPtr(s entities.BookingStatus) *entities.BookingStatus { return &s }
func paidPtr(s entities.PaidStatus) *entities.PaidStatus         { return &s }
func floatPtr(v float64) *float64                                { return &v }

func complete() entities.BookingUpdate {
	return entities.BookingUpdate{Status: statusPtr(entities.BookingStatusCompleted)}
}

var bg = context.Background()
