package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/utils"
)

// OfferingService manages events, visit slots, catalog services and the
// doctor/staff identities nested under them. It also owns fee lookup for
// every offering kind and registers those lookups with the settlement registry.
type OfferingService struct {
	providers           repositories.ProviderRepository
	events              repositories.EventRepository
	slots               repositories.VisitSlotRepository
	services            repositories.ServiceRepository
	members             repositories.MemberRepository
	bookings            repositories.BookingRepository
	index               providers.OfferingIndex
	eventWindow         time.Duration
	organizerCommission bool
	phones              utils.PhoneNormalizer
	now                 func() time.Time
}

// NewOfferingService creates a new offering service and registers its fee resolvers.
// index may be nil when search is disabled.
func NewOfferingService(
	providerRepo repositories.ProviderRepository,
	events repositories.EventRepository,
	slots repositories.VisitSlotRepository,
	services repositories.ServiceRepository,
	members repositories.MemberRepository,
	bookings repositories.BookingRepository,
	index providers.OfferingIndex,
	registry *FeeSourceRegistry,
	eventWindow time.Duration,
	organizerCommission bool,
) *OfferingService {
	s := &OfferingService{
		providers:           providerRepo,
		events:              events,
		slots:               slots,
		services:            services,
		members:             members,
		bookings:            bookings,
		index:               index,
		eventWindow:         eventWindow,
		organizerCommission: organizerCommission,
		now:                 time.Now,
	}
	if registry != nil {
		registry.Register(entities.ProviderTypeLab, s.resolveLabFee)
		registry.Register(entities.ProviderTypeHospital, s.resolveHospitalFee)
		registry.Register(entities.ProviderTypeVisitDoctor, s.resolveSlotFee)
		registry.Register(entities.ProviderTypeOrganizer, s.resolveEventFee)
	}
	return s
}

// SetPhoneNormalizer overrides how member phone numbers are keyed
func (s *OfferingService) SetPhoneNormalizer(n utils.PhoneNormalizer) {
	s.phones = n
}

// SetClock overrides the time source
func (s *OfferingService) SetClock(now func() time.Time) {
	s.now = now
}

// MemberInput describes a doctor or staff identity to create
type MemberInput struct {
	Name  string        `json:"name"`
	Phone string        `json:"phone"`
	Role  entities.Role `json:"role"`
}

// EventInput is the input for CreateEvent
type EventInput struct {
	Name      string        `json:"name"`
	City      string        `json:"city"`
	Venue     string        `json:"venue"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	EntryFee  float64       `json:"entry_fee"`
	Doctors   []MemberInput `json:"doctors"`
	Staff     []MemberInput `json:"staff"`
}

// VisitSlotInput is the input for CreateVisitSlot
type VisitSlotInput struct {
	City      string        `json:"city"`
	DoctorFee float64       `json:"doctor_fee"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Staff     []MemberInput `json:"staff"`
}

// ServiceInput is the input for AddService
type ServiceInput struct {
	Name string  `json:"name"`
	Fee  float64 `json:"fee"`
}

// CreateEvent creates an organizer event. Organizers may create one event per rolling window.
func (s *OfferingService) CreateEvent(ctx context.Context, organizerID string, in EventInput) (*entities.Event, error) {
	ctx, span := observability.StartSpan(ctx, "offering.create_event")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("provider.id", organizerID))

	organizer, err := s.activeProvider(ctx, organizerID, entities.ProviderTypeOrganizer)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if err := entities.ValidateWindow(in.StartTime, in.EndTime); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if in.EntryFee < 0 {
		return nil, apperrors.NewValidationError("entry_fee must not be negative")
	}

	event := &entities.Event{
		ID:          uuid.New().String(),
		OrganizerID: organizer.ID,
		Name:        name,
		City:        strings.TrimSpace(in.City),
		Venue:       strings.TrimSpace(in.Venue),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		EntryFee:    entities.RoundMoney(in.EntryFee),
		CreatedAt:   s.now(),
	}
	for _, d := range in.Doctors {
		m, err := s.newMember(d, entities.RoleDoctor)
		if err != nil {
			return nil, err
		}
		event.Doctors = append(event.Doctors, m)
	}
	for _, st := range in.Staff {
		m, err := s.newMember(st, entities.RoleStaff)
		if err != nil {
			return nil, err
		}
		event.Staff = append(event.Staff, m)
	}

	if err := s.events.Create(ctx, event, s.eventWindow); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.indexDocument(ctx, &entities.OfferingDocument{
		ID:           event.ID,
		Kind:         entities.OfferingKindEvent,
		ProviderID:   organizer.ID,
		ProviderType: organizer.Type,
		Name:         event.Name,
		City:         event.City,
		Fee:          event.EntryFee,
		EndsAt:       &event.EndTime,
	})

	observability.LoggerFromContext(ctx).Info().
		Str("provider_id", organizer.ID).
		Str("event_id", event.ID).
		Int("members", len(event.Members())).
		Msg("event created")
	return event, nil
}

// ListEvents lists an organizer's current events
func (s *OfferingService) ListEvents(ctx context.Context, organizerID string) ([]*entities.Event, error) {
	return s.events.ListByOrganizer(ctx, organizerID)
}

// AddEventMember adds a doctor or staff member to an organizer's event.
// An empty organizerID skips the ownership check.
func (s *OfferingService) AddEventMember(ctx context.Context, organizerID, eventID string, in MemberInput) (*entities.Member, error) {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Expired(s.now()) {
		return nil, apperrors.NewValidationError("event has already ended")
	}

	member, err := s.newMember(in, entities.RoleDoctor, entities.RoleStaff)
	if err != nil {
		return nil, err
	}
	member.OwnerID = event.OrganizerID
	member.ParentID = event.ID
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveEventMember removes a member from an event and releases its phone number
func (s *OfferingService) RemoveEventMember(ctx context.Context, organizerID, eventID, memberID string) error {
	event, err := s.ownedEvent(ctx, organizerID, eventID)
	if err != nil {
		return err
	}
	return s.removeMember(ctx, event.OrganizerID, eventID, memberID)
}

// CreateVisitSlot creates a visit doctor's bookable slot
func (s *OfferingService) CreateVisitSlot(ctx context.Context, providerID string, in VisitSlotInput) (*entities.VisitSlot, error) {
	doctor, err := s.activeProvider(ctx, providerID, entities.ProviderTypeVisitDoctor)
	if err != nil {
		return nil, err
	}
	if err := entities.ValidateWindow(in.StartTime, in.EndTime); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if in.DoctorFee < 0 {
		return nil, apperrors.NewValidationError("doctor_fee must not be negative")
	}

	city := strings.TrimSpace(in.City)
	if city == "" {
		city = doctor.City
	}
	slot := &entities.VisitSlot{
		ID:         uuid.New().String(),
		ProviderID: doctor.ID,
		City:       city,
		DoctorFee:  entities.RoundMoney(in.DoctorFee),
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
	}
	for _, st := range in.Staff {
		m, err := s.newMember(st, entities.RoleStaff)
		if err != nil {
			return nil, err
		}
		slot.Staff = append(slot.Staff, m)
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.indexDocument(ctx, &entities.OfferingDocument{
		ID:           slot.ID,
		Kind:         entities.OfferingKindVisitSlot,
		ProviderID:   doctor.ID,
		ProviderType: doctor.Type,
		Name:         doctor.Name,
		City:         slot.City,
		Fee:          slot.DoctorFee,
		EndsAt:       &slot.EndTime,
	})
	return slot, nil
}

// AddSlotMember adds a staff member to a visit slot. An empty providerID skips the ownership check.
func (s *OfferingService) AddSlotMember(ctx context.Context, providerID, slotID string, in MemberInput) (*entities.Member, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if providerID != "" && slot.ProviderID != providerID {
		return nil, apperrors.NewNotFoundError("visit slot not found")
	}

	member, err := s.newMember(in, entities.RoleStaff)
	if err != nil {
		return nil, err
	}
	member.OwnerID = slot.ProviderID
	member.ParentID = slot.ID
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// AddService adds a catalog entry to a lab or hospital
func (s *OfferingService) AddService(ctx context.Context, providerID string, in ServiceInput) (*entities.Service, error) {
	provider, err := s.activeProvider(ctx, providerID, entities.ProviderTypeLab, entities.ProviderTypeHospital)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if in.Fee < 0 {
		return nil, apperrors.NewValidationError("fee must not be negative")
	}

	service := &entities.Service{
		ID:         uuid.New().String(),
		ProviderID: provider.ID,
		Name:       name,
		Fee:        entities.RoundMoney(in.Fee),
	}
	if err := s.services.Create(ctx, service); err != nil {
		return nil, err
	}

	s.indexDocument(ctx, &entities.OfferingDocument{
		ID:           service.ID,
		Kind:         entities.OfferingKindService,
		ProviderID:   provider.ID,
		ProviderType: provider.Type,
		Name:         service.Name,
		City:         provider.City,
		Fee:          service.Fee,
	})
	return service, nil
}

// ListServices lists a provider's catalog
func (s *OfferingService) ListServices(ctx context.Context, providerID string) ([]*entities.Service, error) {
	return s.services.ListByProvider(ctx, providerID)
}

// RemoveService deletes a catalog entry. Completion reads the fee from the
// catalog, so a service with pending or booked bookings cannot be removed.
func (s *OfferingService) RemoveService(ctx context.Context, providerID, serviceID string) error {
	open, err := s.bookings.CountOpenByOffering(ctx, providerID, serviceID)
	if err != nil {
		return err
	}
	if open > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("service has %d open bookings; complete or cancel them first", open))
	}
	if err := s.services.Delete(ctx, providerID, serviceID); err != nil {
		return err
	}
	s.unindexDocument(ctx, serviceID)
	return nil
}

// AddProviderMember adds a doctor or staff member directly under a hospital, or staff under a lab
func (s *OfferingService) AddProviderMember(ctx context.Context, providerID string, in MemberInput) (*entities.Member, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	var allowed []entities.Role
	switch provider.Type {
	case entities.ProviderTypeHospital:
		allowed = []entities.Role{entities.RoleDoctor, entities.RoleStaff}
	case entities.ProviderTypeLab:
		allowed = []entities.Role{entities.RoleStaff}
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s providers cannot add members directly", provider.Type))
	}

	member, err := s.newMember(in, allowed...)
	if err != nil {
		return nil, err
	}
	member.OwnerID = provider.ID
	member.ParentID = provider.ID
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveProviderMember removes a hospital or lab member and releases its phone number
func (s *OfferingService) RemoveProviderMember(ctx context.Context, providerID, memberID string) error {
	return s.removeMember(ctx, providerID, providerID, memberID)
}

// SearchOfferings queries the offering index
func (s *OfferingService) SearchOfferings(ctx context.Context, query providers.OfferingQuery) ([]*entities.OfferingDocument, error) {
	if s.index == nil {
		return nil, apperrors.NewExternalError("offering search is not configured", nil)
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	return s.index.Search(ctx, query)
}

// CheckBookable verifies that offeringID belongs to provider and can still be booked
func (s *OfferingService) CheckBookable(ctx context.Context, provider *entities.Provider, offeringID string) error {
	switch provider.Type {
	case entities.ProviderTypeOrganizer:
		event, err := s.events.GetByID(ctx, offeringID)
		if err != nil {
			return err
		}
		if event.OrganizerID != provider.ID {
			return apperrors.NewNotFoundError("event not found")
		}
		if event.Expired(s.now()) {
			return apperrors.NewValidationError("event has already ended")
		}
		return nil
	case entities.ProviderTypeVisitDoctor:
		slot, err := s.ownedSlot(ctx, provider, offeringID)
		if err != nil {
			return err
		}
		if slot.Ended(s.now()) {
			return apperrors.NewValidationError("visit slot has already ended")
		}
		return nil
	case entities.ProviderTypeLab, entities.ProviderTypeHospital:
		_, err := s.ownedService(ctx, provider, offeringID)
		return err
	}
	return apperrors.NewValidationError(fmt.Sprintf("unknown provider type %q", provider.Type))
}

func (s *OfferingService) resolveLabFee(ctx context.Context, provider *entities.Provider, offeringID string) (FeeSource, error) {
	service, err := s.ownedService(ctx, provider, offeringID)
	if err != nil {
		return nil, err
	}
	return LabServiceFee{Service: service}, nil
}

func (s *OfferingService) resolveHospitalFee(ctx context.Context, provider *entities.Provider, offeringID string) (FeeSource, error) {
	service, err := s.ownedService(ctx, provider, offeringID)
	if err != nil {
		return nil, err
	}
	return HospitalServiceFee{Service: service}, nil
}

func (s *OfferingService) resolveSlotFee(ctx context.Context, provider *entities.Provider, offeringID string) (FeeSource, error) {
	slot, err := s.ownedSlot(ctx, provider, offeringID)
	if err != nil {
		return nil, err
	}
	return VisitSlotFee{Slot: slot}, nil
}

// resolveEventFee skips the event lookup when organizer commission is off, so
// bookings whose event was already swept can still complete.
func (s *OfferingService) resolveEventFee(ctx context.Context, provider *entities.Provider, offeringID string) (FeeSource, error) {
	if !s.organizerCommission {
		return OrganizerEventFee{EventID: offeringID}, nil
	}
	event, err := s.events.GetByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != provider.ID {
		return nil, apperrors.NewNotFoundError("event not found")
	}
	return OrganizerEventFee{EventID: event.ID, EntryFee: event.EntryFee, Chargeable: true}, nil
}

func (s *OfferingService) ownedService(ctx context.Context, provider *entities.Provider, serviceID string) (*entities.Service, error) {
	service, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service.ProviderID != provider.ID {
		return nil, apperrors.NewNotFoundError("service not found")
	}
	return service, nil
}

func (s *OfferingService) ownedSlot(ctx context.Context, provider *entities.Provider, slotID string) (*entities.VisitSlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ProviderID != provider.ID {
		return nil, apperrors.NewNotFoundError("visit slot not found")
	}
	return slot, nil
}

func (s *OfferingService) ownedEvent(ctx context.Context, organizerID, eventID string) (*entities.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if organizerID != "" && event.OrganizerID != organizerID {
		return nil, apperrors.NewNotFoundError("event not found")
	}
	return event, nil
}

// activeProvider loads a provider of one of the given types that is not suspended
func (s *OfferingService) activeProvider(ctx context.Context, providerID string, types ...entities.ProviderType) (*entities.Provider, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, t := range types {
		if provider.Type == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperrors.NewValidationError(fmt.Sprintf("operation not available to %s providers", provider.Type))
	}
	if provider.ServiceStop {
		return nil, apperrors.NewValidationError("provider service is stopped until outstanding fees are paid")
	}
	return provider, nil
}

func (s *OfferingService) removeMember(ctx context.Context, ownerID, parentID, memberID string) error {
	members, err := s.members.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.ID == memberID {
			return s.members.Delete(ctx, ownerID, memberID)
		}
	}
	return apperrors.NewNotFoundError("member not found")
}

func (s *OfferingService) indexDocument(ctx context.Context, doc *entities.OfferingDocument) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, doc); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("offering_id", doc.ID).
			Msg("failed to index offering")
	}
}

func (s *OfferingService) unindexDocument(ctx context.Context, id string) {
	if s.index == nil {
		return
	}
	if err := s.index.Delete(ctx, id); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("offering_id", id).
			Msg("failed to remove offering from index")
	}
}

// newMember validates a member input. An empty role defaults to the first allowed role.
func (s *OfferingService) newMember(in MemberInput, allowed ...entities.Role) (*entities.Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("member name is required")
	}
	role := in.Role
	if role == "" {
		role = allowed[0]
	}
	ok := false
	for _, r := range allowed {
		if r == role {
			ok = true
			break
		}
	}
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("member role %q is not allowed here", role))
	}
	phone, err := normalizePhone(s.phones, in.Phone)
	if err != nil {
		return nil, err
	}
	return &entities.Member{
		ID:    uuid.New().String(),
		Role:  role,
		Name:  name,
		Phone: phone,
	}, nil
}
