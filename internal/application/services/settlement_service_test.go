package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

func TestSettlement_CommissionAccruesOnce(t *testing.T) {
	h := newHarness(harnessOptions{})
	lab, serviceID, patientID := h.labWithService("lab1", 500)

	booking, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCompleted, booking.Status)
	assert.Equal(t, 100.0, booking.Commission)

	_, err = h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
	require.NoError(t, err)

	assert.Equal(t, 100.0, h.store.provider(lab.ID).AdminRevenue)
	assert.Equal(t, []entities.DomainEventType{
		entities.DomainEventBookingCompleted,
		entities.DomainEventBookingUpdated,
	}, h.bus.Types())
}

func TestSettlement_VisitDoctorThenPaid(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "vd1", Type: entities.ProviderTypeVisitDoctor, Ledger: entities.Ledger{FeeBalance: 200}})
	h.store.seedSlot(&entities.VisitSlot{ID: "slot1", ProviderID: "vd1", DoctorFee: 1000, StartTime: t0, EndTime: t0.Add(time.Hour)})
	h.store.seedBooking(&entities.Booking{ID: "b1", PatientID: "p1", ProviderID: "vd1", ProviderType: entities.ProviderTypeVisitDoctor, ServiceID: "slot1", Status: entities.BookingStatusBooked})

	next := t0.Add(7 * 24 * time.Hour)
	update := complete()
	update.NextVisitDate = &next
	booking, err := h.settlement.TransitionBooking(bg, "vd1", "slot1", "p1", update)
	require.NoError(t, err)
	assert.Equal(t, 200.0, booking.Commission)
	require.NotNil(t, booking.NextVisitDate)
	assert.True(t, booking.NextVisitDate.Equal(next))
	assert.Equal(t, 200.0, h.store.provider("vd1").AdminRevenue)

	provider, err := h.ledger.UpdateProviderRevenue(bg, "vd1", entities.RevenueUpdate{PaidStatus: paidPtr(entities.PaidStatusPaid)})
	require.NoError(t, err)
	assert.Equal(t, entities.PaidStatusPaid, provider.PaidStatus)
	assert.Zero(t, provider.FeeBalance)
	assert.Equal(t, 200.0, provider.AdminRevenue, "payment never reduces admin revenue")
}

func TestSettlement_OrganizerCommissionPolicy(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		t.Run(fmt.Sprintf("enabled=%v", enabled), func(t *testing.T) {
			h := newHarness(harnessOptions{organizerCommission: enabled})
			h.store.seedProvider(&entities.Provider{ID: "org1", Type: entities.ProviderTypeOrganizer})
			_, err := h.offerings.CreateEvent(bg, "org1", campInput(t0))
			require.NoError(t, err)
			events, err := h.offerings.ListEvents(bg, "org1")
			require.NoError(t, err)
			require.Len(t, events, 1)

			// Entry fee defaults to zero in campInput; set one directly.
			h.store.mu.Lock()
			h.store.events[events[0].ID].EntryFee = 250
			h.store.mu.Unlock()

			h.store.seedBooking(&entities.Booking{ID: "b1", PatientID: "p1", ProviderID: "org1", ProviderType: entities.ProviderTypeOrganizer, ServiceID: events[0].ID, Status: entities.BookingStatusPending})
			booking, err := h.settlement.TransitionBooking(bg, "org1", events[0].ID, "p1", complete())
			require.NoError(t, err)

			want := 0.0
			if enabled {
				want = 50
			}
			assert.Equal(t, want, booking.Commission)
			assert.Equal(t, want, h.store.provider("org1").AdminRevenue)
		})
	}
}

func TestSettlement_CompletesAfterEventExpired(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "org1", Type: entities.ProviderTypeOrganizer})
	h.store.seedBooking(&entities.Booking{ID: "b1", PatientID: "p1", ProviderID: "org1", ProviderType: entities.ProviderTypeOrganizer, ServiceID: "gone", Status: entities.BookingStatusBooked})

	booking, err := h.settlement.TransitionBooking(bg, "org1", "gone", "p1", complete())
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCompleted, booking.Status)
	assert.Zero(t, booking.Commission)
}

func TestSettlement_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   entities.BookingStatus
		update entities.BookingUpdate
	}{
		{"empty update", entities.BookingStatusPending, entities.BookingUpdate{}},
		{"unknown status", entities.BookingStatusPending, entities.BookingUpdate{Status: statusPtr("archived")}},
		{"completed back to pending", entities.BookingStatusCompleted, entities.BookingUpdate{Status: statusPtr(entities.BookingStatusPending)}},
		{"cancelled to completed", entities.BookingStatusCancelled, complete()},
		{"next visit on cancelled", entities.BookingStatusCancelled, entities.BookingUpdate{NextVisitDate: &t0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(harnessOptions{})
			lab, serviceID, patientID := h.labWithService("lab1", 500)
			h.store.mu.Lock()
			h.store.bookings[0].Status = tt.from
			h.store.mu.Unlock()

			_, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, tt.update)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition), err.Error())
			assert.Zero(t, h.store.provider(lab.ID).AdminRevenue)
		})
	}
}

func TestSettlement_BookingNotFound(t *testing.T) {
	h := newHarness(harnessOptions{})
	lab, serviceID, _ := h.labWithService("lab1", 500)

	_, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, "someone-else", complete())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSettlement_PrefersActiveBooking(t *testing.T) {
	h := newHarness(harnessOptions{})
	lab, serviceID, patientID := h.labWithService("lab1", 100)
	h.store.seedBooking(&entities.Booking{
		ID: "newer-cancelled", PatientID: patientID, ProviderID: lab.ID, ProviderType: entities.ProviderTypeLab,
		ServiceID: serviceID, Status: entities.BookingStatusCancelled,
	})

	booking, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
	require.NoError(t, err)
	assert.Equal(t, "lab1-booking", booking.ID)
}

func TestSettlement_ConcurrentCompletionAccruesOnce(t *testing.T) {
	h := newHarness(harnessOptions{})
	lab, serviceID, patientID := h.labWithService("lab1", 500)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100.0, h.store.provider(lab.ID).AdminRevenue)
}

func TestSettlement_ConcurrentAccrualWithLedgerUpdates(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "lab1", Type: entities.ProviderTypeLab})
	h.store.seedService(&entities.Service{ID: "svc", ProviderID: "lab1", Fee: 50})

	const bookings = 40
	for i := 0; i < bookings; i++ {
		h.store.seedBooking(&entities.Booking{
			ID: fmt.Sprintf("b%d", i), PatientID: fmt.Sprintf("p%d", i), ProviderID: "lab1",
			ProviderType: entities.ProviderTypeLab, ServiceID: "svc", Status: entities.BookingStatusPending,
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < bookings; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.settlement.TransitionBooking(bg, "lab1", "svc", fmt.Sprintf("p%d", i), complete())
			assert.NoError(t, err)
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.ledger.UpdateProviderRevenue(bg, "lab1", entities.RevenueUpdate{FeeBalance: floatPtr(float64(i * 10))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	provider := h.store.provider("lab1")
	assert.Equal(t, 400.0, provider.AdminRevenue)
	assert.Equal(t, int64(1+bookings+10), provider.Version)
}

func TestSettlement_FeeResolvedBeforeLocking(t *testing.T) {
	h := newHarness(harnessOptions{})
	lab, serviceID, patientID := h.labWithService("lab1", 500)

	var lookups, inTx int32
	h.registry.Register(entities.ProviderTypeLab, func(ctx context.Context, p *entities.Provider, offeringID string) (services.FeeSource, error) {
		atomic.AddInt32(&lookups, 1)
		atomic.AddInt32(&inTx, h.store.openTx.Load())
		return services.LabServiceFee{Service: &entities.Service{ID: offeringID, ProviderID: p.ID, Fee: 500}}, nil
	})

	booking, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
	require.NoError(t, err)
	assert.Equal(t, 100.0, booking.Commission)
	assert.Equal(t, int32(1), atomic.LoadInt32(&lookups))
	assert.Zero(t, atomic.LoadInt32(&inTx), "fee lookup must not run while a settlement tx holds row locks")
}

func TestSettlement_RedriveIgnoresMissingFeeSource(t *testing.T) {
	h := newHarness(harnessOptions{})
	lab, serviceID, patientID := h.labWithService("lab1", 500)
	_, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
	require.NoError(t, err)

	h.store.mu.Lock()
	delete(h.store.services, serviceID)
	h.store.mu.Unlock()

	booking, err := h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCompleted, booking.Status)
	assert.Equal(t, 100.0, h.store.provider(lab.ID).AdminRevenue)
}
