package entities

import (
	"fmt"
	"time"
)

// OfferingKind identifies the kind of bookable unit
type OfferingKind string

const (
	OfferingKindEvent     OfferingKind = "event"
	OfferingKindVisitSlot OfferingKind = "visit_slot"
	OfferingKindService   OfferingKind = "service"
)

// Event is an organizer's health camp with its own doctors and staff
type Event struct {
	ID          string    `json:"id" db:"id"`
	OrganizerID string    `json:"organizer_id" db:"organizer_id"`
	Name        string    `json:"name" db:"name"`
	City        string    `json:"city" db:"city"`
	Venue       string    `json:"venue" db:"venue"`
	StartTime   time.Time `json:"start_time" db:"start_time"`
	EndTime     time.Time `json:"end_time" db:"end_time"`
	EntryFee    float64   `json:"entry_fee" db:"entry_fee"`
	Doctors     []*Member `json:"doctors,omitempty" db:"-"`
	Staff       []*Member `json:"staff,omitempty" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Members returns doctors followed by staff
func (e *Event) Members() []*Member {
	members := make([]*Member, 0, len(e.Doctors)+len(e.Staff))
	members = append(members, e.Doctors...)
	return append(members, e.Staff...)
}

// Expired reports whether the event has ended at now
func (e *Event) Expired(now time.Time) bool {
	return !e.EndTime.After(now)
}

// VisitSlot is a visit doctor's bookable time window
type VisitSlot struct {
	ID         string    `json:"id" db:"id"`
	ProviderID string    `json:"provider_id" db:"provider_id"`
	City       string    `json:"city" db:"city"`
	DoctorFee  float64   `json:"doctor_fee" db:"doctor_fee"`
	StartTime  time.Time `json:"start_time" db:"start_time"`
	EndTime    time.Time `json:"end_time" db:"end_time"`
	Staff      []*Member `json:"staff,omitempty" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Ended reports whether the slot has ended at now
func (s *VisitSlot) Ended(now time.Time) bool {
	return !s.EndTime.After(now)
}

// Service is a lab or hospital catalog entry with a flat fee
type Service struct {
	ID         string    `json:"id" db:"id"`
	ProviderID string    `json:"provider_id" db:"provider_id"`
	Name       string    `json:"name" db:"name"`
	Fee        float64   `json:"fee" db:"fee"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ValidateWindow enforces start < end for time-bound offerings
func ValidateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("start and end time are required")
	}
	if !start.Before(end) {
		return fmt.Errorf("start time must be before end time")
	}
	return nil
}

// OfferingDocument is the search-index projection of any offering
type OfferingDocument struct {
	ID           string       `json:"id"`
	Kind         OfferingKind `json:"kind"`
	ProviderID   string       `json:"provider_id"`
	ProviderType ProviderType `json:"provider_type"`
	Name         string       `json:"name"`
	City         string       `json:"city"`
	Fee          float64      `json:"fee"`
	EndsAt       *time.Time   `json:"ends_at,omitempty"`
}
