package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

// memStore is an in-memory stand-in for the Postgres adapters. It keeps the
// same guarantees the schema gives: one phone row per number, version CAS on
// providers and bookings, and row locks held for the length of a settlement tx.
type memStore struct {
	mu        sync.Mutex
	patients  map[string]*entities.Patient
	providers map[string]*entities.Provider
	bookings  []*entities.Booking
	services  map[string]*entities.Service
	slots     map[string]*entities.VisitSlot
	events    map[string]*entities.Event
	members   map[string]*entities.Member
	phones    map[string]*entities.PhoneRecord

	rowMu sync.Mutex
	rows  map[string]*sync.Mutex

	// openTx counts settlement transactions in flight
	openTx atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{
		patients:  make(map[string]*entities.Patient),
		providers: make(map[string]*entities.Provider),
		services:  make(map[string]*entities.Service),
		slots:     make(map[string]*entities.VisitSlot),
		events:    make(map[string]*entities.Event),
		members:   make(map[string]*entities.Member),
		phones:    make(map[string]*entities.PhoneRecord),
		rows:      make(map[string]*sync.Mutex),
	}
}

func (s *memStore) row(id string) *sync.Mutex {
	s.rowMu.Lock()
	defer s.rowMu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		m = &sync.Mutex{}
		s.rows[id] = m
	}
	return m
}

// claimPhones reserves every record or none. Caller holds s.mu.
func (s *memStore) claimPhones(records ...*entities.PhoneRecord) error {
	seen := make(map[string]bool)
	for _, r := range records {
		if _, taken := s.phones[r.Phone]; taken || seen[r.Phone] {
			return apperrors.NewConflictError("phone number already registered")
		}
		seen[r.Phone] = true
	}
	for _, r := range records {
		s.phones[r.Phone] = r
	}
	return nil
}

func memberPhones(members []*entities.Member) []*entities.PhoneRecord {
	records := make([]*entities.PhoneRecord, 0, len(members))
	for _, m := range members {
		records = append(records, &entities.PhoneRecord{Phone: m.Phone, IdentityID: m.ID, Role: m.Role, OwnerID: m.OwnerID})
	}
	return records
}

// seedProvider inserts a provider directly, bypassing signup
func (s *memStore) seedProvider(p *entities.Provider) *entities.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.PaidStatus == "" {
		p.PaidStatus = entities.PaidStatusPending
	}
	if p.Version == 0 {
		p.Version = 1
	}
	cp := *p
	s.providers[p.ID] = &cp
	if p.Phone != "" {
		s.phones[p.Phone] = &entities.PhoneRecord{Phone: p.Phone, IdentityID: p.ID, Role: p.Type.Role()}
	}
	return p
}

func (s *memStore) seedPatient(p *entities.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.patients[p.ID] = &cp
}

func (s *memStore) seedService(svc *entities.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *svc
	s.services[svc.ID] = &cp
}

func (s *memStore) seedSlot(slot *entities.VisitSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *slot
	s.slots[slot.ID] = &cp
}

func (s *memStore) seedBooking(b *entities.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Version == 0 {
		b.Version = 1
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	cp := *b
	s.bookings = append(s.bookings, &cp)
}

func (s *memStore) provider(id string) entities.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.providers[id]
}

func (s *memStore) phoneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.phones)
}

// patients

type memPatients struct{ *memStore }

func (r memPatients) Create(ctx context.Context, p *entities.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.claimPhones(&entities.PhoneRecord{Phone: p.Phone, IdentityID: p.ID, Role: entities.RolePatient}); err != nil {
		return err
	}
	p.CreatedAt = time.Now()
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r memPatients) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	cp := *p
	return &cp, nil
}

type memRegistry struct{ *memStore }

func (r memRegistry) Lookup(ctx context.Context, phone string) (*entities.PhoneRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.phones[phone]
	if !ok {
		return nil, apperrors.NewNotFoundError("phone number not registered")
	}
	cp := *rec
	return &cp, nil
}

// providers

type memProviders struct{ *memStore }

func (r memProviders) Create(ctx context.Context, p *entities.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.claimPhones(&entities.PhoneRecord{Phone: p.Phone, IdentityID: p.ID, Role: p.Type.Role()}); err != nil {
		return err
	}
	if p.PaidStatus == "" {
		p.PaidStatus = entities.PaidStatusPending
	}
	p.Version = 1
	cp := *p
	r.providers[p.ID] = &cp
	return nil
}

func (r memProviders) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("provider not found")
	}
	cp := *p
	return &cp, nil
}

func (r memProviders) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Provider
	for _, id := range ids {
		if p, ok := r.providers[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memProviders) List(ctx context.Context, f repositories.ProviderFilter) ([]*entities.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Provider
	for _, p := range r.providers {
		if len(f.Types) > 0 && !containsType(f.Types, p.Type) {
			continue
		}
		if f.PaidStatus != "" && p.PaidStatus != f.PaidStatus {
			continue
		}
		if f.Suspended != nil && p.ServiceStop != *f.Suspended {
			continue
		}
		if f.PositiveBalance && p.FeeBalance <= 0 {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProviders) UpdateLedger(ctx context.Context, p *entities.Provider) error {
	lock := r.row(p.ID)
	lock.Lock()
	defer lock.Unlock()
	return r.saveLedger(p)
}

func (s *memStore) saveLedger(p *entities.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.providers[p.ID]
	if !ok || stored.Version != p.Version {
		return repositories.ErrStaleVersion
	}
	stored.Ledger = p.Ledger
	stored.Version++
	p.Version = stored.Version
	return nil
}

func containsType(types []entities.ProviderType, t entities.ProviderType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// offerings

type memServices struct{ *memStore }

func (r memServices) Create(ctx context.Context, svc *entities.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *svc
	r.services[svc.ID] = &cp
	return nil
}

func (r memServices) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("service not found")
	}
	cp := *svc
	return &cp, nil
}

func (r memServices) ListByProvider(ctx context.Context, providerID string) ([]*entities.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Service
	for _, svc := range r.services {
		if svc.ProviderID == providerID {
			cp := *svc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memServices) Delete(ctx context.Context, providerID, serviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[serviceID]
	if !ok || svc.ProviderID != providerID {
		return apperrors.NewNotFoundError("service not found")
	}
	delete(r.services, serviceID)
	return nil
}

type memSlots struct{ *memStore }

func (r memSlots) Create(ctx context.Context, slot *entities.VisitSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range slot.Staff {
		m.ParentID, m.OwnerID = slot.ID, slot.ProviderID
	}
	if err := r.claimPhones(memberPhones(slot.Staff)...); err != nil {
		return err
	}
	for _, m := range slot.Staff {
		cp := *m
		r.members[m.ID] = &cp
	}
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r memSlots) GetByID(ctx context.Context, id string) (*entities.VisitSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("visit slot not found")
	}
	cp := *slot
	return &cp, nil
}

func (r memSlots) LatestByProvider(ctx context.Context, providerID string) (*entities.VisitSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entities.VisitSlot
	for _, slot := range r.slots {
		if slot.ProviderID == providerID && (latest == nil || slot.EndTime.After(latest.EndTime)) {
			latest = slot
		}
	}
	if latest == nil {
		return nil, apperrors.NewNotFoundError("visit slot not found")
	}
	cp := *latest
	return &cp, nil
}

type memEvents struct{ *memStore }

func (r memEvents) Create(ctx context.Context, event *entities.Event, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	organizer, ok := r.providers[event.OrganizerID]
	if !ok || organizer.Type != entities.ProviderTypeOrganizer {
		return apperrors.NewNotFoundError("organizer not found")
	}
	if organizer.LastEventAt != nil && organizer.LastEventAt.After(event.CreatedAt.Add(-window)) {
		return apperrors.NewValidationError(fmt.Sprintf("only 1 event per %dh", int(window.Hours())))
	}
	members := event.Members()
	for _, m := range members {
		m.ParentID, m.OwnerID = event.ID, event.OrganizerID
	}
	if err := r.claimPhones(memberPhones(members)...); err != nil {
		return err
	}
	for _, m := range members {
		cp := *m
		r.members[m.ID] = &cp
	}
	at := event.CreatedAt
	organizer.LastEventAt = &at
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r memEvents) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("event not found")
	}
	cp := *event
	return &cp, nil
}

func (r memEvents) ListByOrganizer(ctx context.Context, organizerID string) ([]*entities.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Event
	for _, event := range r.events {
		if event.OrganizerID == organizerID {
			cp := *event
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memEvents) DeleteExpired(ctx context.Context, organizerID string, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for id, event := range r.events {
		if event.OrganizerID != organizerID || !event.Expired(now) {
			continue
		}
		for mid, m := range r.members {
			if m.ParentID == id {
				delete(r.phones, m.Phone)
				delete(r.members, mid)
			}
		}
		delete(r.events, id)
		removed = append(removed, id)
	}
	sort.Strings(removed)
	return removed, nil
}

type memMembers struct{ *memStore }

func (r memMembers) Create(ctx context.Context, m *entities.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.claimPhones(memberPhones([]*entities.Member{m})...); err != nil {
		return err
	}
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r memMembers) Delete(ctx context.Context, ownerID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok || m.OwnerID != ownerID {
		return apperrors.NewNotFoundError("member not found")
	}
	delete(r.phones, m.Phone)
	delete(r.members, memberID)
	return nil
}

func (r memMembers) ListByParent(ctx context.Context, parentID string) ([]*entities.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Member
	for _, m := range r.members {
		if m.ParentID == parentID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// bookings

type memBookings struct{ *memStore }

func (r memBookings) Create(ctx context.Context, b *entities.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version = 1
	b.CreatedAt = time.Now()
	cp := *b
	r.bookings = append(r.bookings, &cp)
	return nil
}

func (r memBookings) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("booking not found")
}

func (r memBookings) ListByPatient(ctx context.Context, patientID string, f repositories.BookingFilter) ([]*entities.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Booking
	for i := len(r.bookings) - 1; i >= 0; i-- {
		b := r.bookings[i]
		if b.PatientID != patientID || (f.Status != "" && b.Status != f.Status) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r memBookings) CountOpenByOffering(ctx context.Context, providerID, offeringID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bookings {
		if b.ProviderID == providerID && b.ServiceID == offeringID && b.Status.Open() {
			n++
		}
	}
	return n, nil
}

// settlement

type memSettlement struct{ *memStore }

func (r memSettlement) WithinTx(ctx context.Context, fn func(context.Context, repositories.SettlementTx) error) error {
	tx := &memTx{store: r.memStore}
	r.openTx.Add(1)
	defer r.openTx.Add(-1)
	defer tx.unlock()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

type memTx struct {
	store    *memStore
	locks    []*sync.Mutex
	booking  *entities.Booking
	provider *entities.Provider
}

func (tx *memTx) unlock() {
	for i := len(tx.locks) - 1; i >= 0; i-- {
		tx.locks[i].Unlock()
	}
}

func (tx *memTx) LockBooking(ctx context.Context, key repositories.BookingKey) (*entities.Booking, error) {
	s := tx.store
	s.mu.Lock()
	var found *entities.Booking
	for i := len(s.bookings) - 1; i >= 0; i-- {
		b := s.bookings[i]
		if b.PatientID != key.PatientID || b.ProviderID != key.ProviderID || b.ServiceID != key.ServiceID {
			continue
		}
		if found == nil || (b.Status.Active() && !found.Status.Active()) {
			found = b
		}
	}
	s.mu.Unlock()
	if found == nil {
		return nil, apperrors.NewNotFoundError("booking not found")
	}

	lock := s.row(found.ID)
	lock.Lock()
	tx.locks = append(tx.locks, lock)

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *found
	return &cp, nil
}

func (tx *memTx) LockProvider(ctx context.Context, providerID string) (*entities.Provider, error) {
	lock := tx.store.row(providerID)
	lock.Lock()
	tx.locks = append(tx.locks, lock)

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	p, ok := tx.store.providers[providerID]
	if !ok {
		return nil, apperrors.NewNotFoundError("provider not found")
	}
	cp := *p
	return &cp, nil
}

func (tx *memTx) SaveBooking(ctx context.Context, b *entities.Booking) error {
	cp := *b
	tx.booking = &cp
	return nil
}

func (tx *memTx) SaveLedger(ctx context.Context, p *entities.Provider) error {
	cp := *p
	tx.provider = &cp
	return nil
}

func (tx *memTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.provider != nil {
		stored := s.providers[tx.provider.ID]
		if stored.Version != tx.provider.Version {
			return repositories.ErrStaleVersion
		}
	}
	if tx.booking != nil {
		for _, b := range s.bookings {
			if b.ID == tx.booking.ID && b.Version != tx.booking.Version {
				return repositories.ErrStaleVersion
			}
		}
	}

	if tx.provider != nil {
		stored := s.providers[tx.provider.ID]
		stored.Ledger = tx.provider.Ledger
		stored.Version++
	}
	if tx.booking != nil {
		for _, b := range s.bookings {
			if b.ID == tx.booking.ID {
				b.Status = tx.booking.Status
				b.NextVisitDate = tx.booking.NextVisitDate
				b.Commission = tx.booking.Commission
				b.Version++
			}
		}
	}
	return nil
}

// memLocker is a process-local Locker
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, true, nil
}
