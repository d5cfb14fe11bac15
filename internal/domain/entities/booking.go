package entities

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusBooked, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Active reports whether a booking in this status still counts
func (s BookingStatus) Active() bool {
	return s != BookingStatusCancelled
}

// Open reports whether a booking in this status is still awaiting completion
func (s BookingStatus) Open() bool {
	return s == BookingStatusPending || s == BookingStatusBooked
}

var bookingTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusPending: {
		BookingStatusPending:   true,
		BookingStatusBooked:    true,
		BookingStatusCompleted: true,
		BookingStatusCancelled: true,
	},
	BookingStatusBooked: {
		BookingStatusPending:   true,
		BookingStatusBooked:    true,
		BookingStatusCompleted: true,
		BookingStatusCancelled: true,
	},
	// Completed and cancelled are terminal; re-applying the same status is an idempotent re-drive.
	BookingStatusCompleted: {BookingStatusCompleted: true},
	BookingStatusCancelled: {BookingStatusCancelled: true},
}

// CanTransitionTo reports whether the status may move to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return bookingTransitions[s][next]
}

// Booking links a patient to a provider offering
type Booking struct {
	ID            string        `json:"id" db:"id"`
	PatientID     string        `json:"patient_id" db:"patient_id"`
	ProviderID    string        `json:"provider_id" db:"provider_id"`
	ProviderType  ProviderType  `json:"provider_type" db:"provider_type"`
	ServiceID     string        `json:"service_id" db:"service_id"`
	Status        BookingStatus `json:"status" db:"status"`
	BookingDate   time.Time     `json:"booking_date" db:"booking_date"`
	NextVisitDate *time.Time    `json:"next_visit_date,omitempty" db:"next_visit_date"`
	Commission    float64       `json:"commission" db:"commission"`
	Version       int64         `json:"version" db:"version"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingUpdate carries the optional fields of a status update
type BookingUpdate struct {
	Status        *BookingStatus `json:"status,omitempty"`
	NextVisitDate *time.Time     `json:"next_visit_date,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u BookingUpdate) IsEmpty() bool {
	return u.Status == nil && u.NextVisitDate == nil
}

// CompletesFreshly reports whether applying u moves b into completed for the first time.
func (u BookingUpdate) CompletesFreshly(b *Booking) bool {
	return u.Status != nil && *u.Status == BookingStatusCompleted && b.Status != BookingStatusCompleted
}

// BookingView is a booking enriched with a provider summary for history listings
type BookingView struct {
	*Booking
	ProviderName string `json:"provider_name,omitempty"`
	ProviderCity string `json:"provider_city,omitempty"`
}
