package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

type MockOfferingIndex struct {
	mock.Mock
}

func (m *MockOfferingIndex) Index(ctx context.Context, doc *entities.OfferingDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockOfferingIndex) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferingIndex) Search(ctx context.Context, query providers.OfferingQuery) ([]*entities.OfferingDocument, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.OfferingDocument), args.Error(1)
}

func campInput(start time.Time) services.EventInput {
	return services.EventInput{
		Name:      "Free eye camp",
		City:      "Pune",
		StartTime: start.Add(time.Hour),
		EndTime:   start.Add(6 * time.Hour),
	}
}

func TestOfferingService_EventRateLimit(t *testing.T) {
	h := newHarness(harnessOptions{})
	organizer := h.store.seedProvider(&entities.Provider{ID: "org1", Type: entities.ProviderTypeOrganizer})

	_, err := h.offerings.CreateEvent(bg, organizer.ID, campInput(h.now))
	require.NoError(t, err)

	h.now = t0.Add(2 * time.Hour)
	_, err = h.offerings.CreateEvent(bg, organizer.ID, campInput(h.now))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "only 1 event per 24h")

	h.now = t0.Add(25 * time.Hour)
	_, err = h.offerings.CreateEvent(bg, organizer.ID, campInput(h.now))
	require.NoError(t, err)

	events, err := h.offerings.ListEvents(bg, organizer.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestOfferingService_CreateEvent_Validation(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "org1", Type: entities.ProviderTypeOrganizer})
	h.store.seedProvider(&entities.Provider{ID: "lab1", Type: entities.ProviderTypeLab})
	h.store.seedProvider(&entities.Provider{ID: "org2", Type: entities.ProviderTypeOrganizer, Ledger: entities.Ledger{ServiceStop: true}})

	backwards := campInput(t0)
	backwards.StartTime, backwards.EndTime = backwards.EndTime, backwards.StartTime

	badRole := campInput(t0)
	badRole.Doctors = []services.MemberInput{{Name: "X", Phone: "9000000009", Role: entities.RoleStaff}}

	tests := []struct {
		name        string
		organizerID string
		input       services.EventInput
		wantType    apperrors.ErrorType
	}{
		{"end before start", "org1", backwards, apperrors.ErrorTypeValidation},
		{"not an organizer", "lab1", campInput(t0), apperrors.ErrorTypeValidation},
		{"suspended organizer", "org2", campInput(t0), apperrors.ErrorTypeValidation},
		{"unknown organizer", "nope", campInput(t0), apperrors.ErrorTypeNotFound},
		{"staff listed as doctor", "org1", badRole, apperrors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.offerings.CreateEvent(bg, tt.organizerID, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestOfferingService_EventMembers(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "org1", Type: entities.ProviderTypeOrganizer, Phone: "9000000001"})

	in := campInput(t0)
	in.Doctors = []services.MemberInput{{Name: "Dr Rao", Phone: "9000000002"}}
	event, err := h.offerings.CreateEvent(bg, "org1", in)
	require.NoError(t, err)
	require.Len(t, event.Doctors, 1)
	assert.Equal(t, entities.RoleDoctor, event.Doctors[0].Role)

	staff, err := h.offerings.AddEventMember(bg, "org1", event.ID, services.MemberInput{Name: "Meena", Phone: "9000000003", Role: entities.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, 3, h.store.phoneCount())

	_, err = h.offerings.AddEventMember(bg, "org1", event.ID, services.MemberInput{Name: "Dup", Phone: "9000000002"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	_, err = h.offerings.AddEventMember(bg, "other", event.ID, services.MemberInput{Name: "X", Phone: "9000000004"})
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, h.offerings.RemoveEventMember(bg, "org1", event.ID, staff.ID))
	assert.Equal(t, 2, h.store.phoneCount(), "removing a member releases its phone")

	err = h.offerings.RemoveEventMember(bg, "org1", event.ID, staff.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestOfferingService_MembersWithoutOwnerScope(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "org1", Type: entities.ProviderTypeOrganizer})
	h.store.seedProvider(&entities.Provider{ID: "vd1", Type: entities.ProviderTypeVisitDoctor})
	event, err := h.offerings.CreateEvent(bg, "org1", campInput(t0))
	require.NoError(t, err)
	slot, err := h.offerings.CreateVisitSlot(bg, "vd1", services.VisitSlotInput{DoctorFee: 500, StartTime: t0, EndTime: t0.Add(time.Hour)})
	require.NoError(t, err)

	staff, err := h.offerings.AddEventMember(bg, "", event.ID, services.MemberInput{Name: "Meena", Phone: "9000000013", Role: entities.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, "org1", staff.OwnerID, "member belongs to the event's organizer")

	slotStaff, err := h.offerings.AddSlotMember(bg, "", slot.ID, services.MemberInput{Name: "Kiran", Phone: "9000000014"})
	require.NoError(t, err)
	assert.Equal(t, "vd1", slotStaff.OwnerID)

	require.NoError(t, h.offerings.RemoveEventMember(bg, "", event.ID, staff.ID))

	_, err = h.offerings.AddSlotMember(bg, "vd2", slot.ID, services.MemberInput{Name: "X", Phone: "9000000015"})
	assert.True(t, apperrors.IsNotFound(err), "a non-empty owner is still checked")
}

func TestOfferingService_ProviderMembers(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "hosp1", Type: entities.ProviderTypeHospital})
	h.store.seedProvider(&entities.Provider{ID: "lab1", Type: entities.ProviderTypeLab})
	h.store.seedProvider(&entities.Provider{ID: "vd1", Type: entities.ProviderTypeVisitDoctor})

	doctor, err := h.offerings.AddProviderMember(bg, "hosp1", services.MemberInput{Name: "Dr Iyer", Phone: "9100000001", Role: entities.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, "hosp1", doctor.ParentID)

	_, err = h.offerings.AddProviderMember(bg, "lab1", services.MemberInput{Name: "Dr Lab", Phone: "9100000002", Role: entities.RoleDoctor})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "labs only have staff")

	tech, err := h.offerings.AddProviderMember(bg, "lab1", services.MemberInput{Name: "Tech", Phone: "9100000003"})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleStaff, tech.Role)

	_, err = h.offerings.AddProviderMember(bg, "vd1", services.MemberInput{Name: "X", Phone: "9100000004"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	require.NoError(t, h.offerings.RemoveProviderMember(bg, "hosp1", doctor.ID))
	assert.True(t, apperrors.IsNotFound(h.offerings.RemoveProviderMember(bg, "lab1", doctor.ID)))
}

func TestOfferingService_IndexesOfferings(t *testing.T) {
	index := new(MockOfferingIndex)
	h := newHarness(harnessOptions{index: index})
	h.store.seedProvider(&entities.Provider{ID: "lab1", Type: entities.ProviderTypeLab, City: "Nagpur"})
	h.store.seedProvider(&entities.Provider{ID: "vd1", Type: entities.ProviderTypeVisitDoctor, Name: "Dr Shah", City: "Nashik"})

	index.On("Index", mock.Anything, mock.MatchedBy(func(doc *entities.OfferingDocument) bool {
		return doc.Kind == entities.OfferingKindService && doc.City == "Nagpur" && doc.Fee == 450
	})).Return(nil).Once()
	index.On("Index", mock.Anything, mock.MatchedBy(func(doc *entities.OfferingDocument) bool {
		return doc.Kind == entities.OfferingKindVisitSlot && doc.Name == "Dr Shah" && doc.EndsAt != nil
	})).Return(assert.AnError).Once()

	service, err := h.offerings.AddService(bg, "lab1", services.ServiceInput{Name: "Lipid profile", Fee: 450})
	require.NoError(t, err)

	_, err = h.offerings.CreateVisitSlot(bg, "vd1", services.VisitSlotInput{
		DoctorFee: 1000, StartTime: t0, EndTime: t0.Add(2 * time.Hour),
	})
	require.NoError(t, err, "index failures do not fail the write")

	index.On("Delete", mock.Anything, service.ID).Return(nil).Once()
	require.NoError(t, h.offerings.RemoveService(bg, "lab1", service.ID))

	index.On("Search", mock.Anything, providers.OfferingQuery{Text: "lipid", Limit: 20}).
		Return([]*entities.OfferingDocument{{ID: "x"}}, nil).Once()
	docs, err := h.offerings.SearchOfferings(bg, providers.OfferingQuery{Text: "lipid"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	index.AssertExpectations(t)
}

func TestOfferingService_SearchWithoutIndex(t *testing.T) {
	h := newHarness(harnessOptions{})
	_, err := h.offerings.SearchOfferings(bg, providers.OfferingQuery{Text: "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestOfferingService_CatalogOwnership(t *testing.T) {
	h := newHarness(harnessOptions{})
	h.store.seedProvider(&entities.Provider{ID: "lab1", Type: entities.ProviderTypeLab})
	h.store.seedProvider(&entities.Provider{ID: "lab2", Type: entities.ProviderTypeLab})
	h.store.seedProvider(&entities.Provider{ID: "org1", Type: entities.ProviderTypeOrganizer})

	svc, err := h.offerings.AddService(bg, "lab1", services.ServiceInput{Name: "CBC", Fee: 200})
	require.NoError(t, err)

	_, err = h.offerings.AddService(bg, "org1", services.ServiceInput{Name: "CBC", Fee: 200})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = h.offerings.AddService(bg, "lab1", services.ServiceInput{Name: "CBC", Fee: -1})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	assert.True(t, apperrors.IsNotFound(h.offerings.RemoveService(bg, "lab2", svc.ID)))

	list, err := h.offerings.ListServices(bg, "lab1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOfferingService_RemoveServiceWithOpenBookings(t *testing.T) {
	h := newHarness(harnessOptions{})
	lab, serviceID, patientID := h.labWithService("lab1", 500)

	err := h.offerings.RemoveService(bg, lab.ID, serviceID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "pending booking blocks removal")

	_, err = h.settlement.TransitionBooking(bg, lab.ID, serviceID, patientID, complete())
	require.NoError(t, err, "the fee is still resolvable")
	assert.Equal(t, 100.0, h.store.provider(lab.ID).AdminRevenue)

	require.NoError(t, h.offerings.RemoveService(bg, lab.ID, serviceID))
	list, err := h.offerings.ListServices(bg, lab.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
