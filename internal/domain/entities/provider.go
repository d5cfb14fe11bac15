package entities

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ProviderType distinguishes the four provider kinds
type ProviderType string

const (
	ProviderTypeOrganizer   ProviderType = "organizer"
	ProviderTypeVisitDoctor ProviderType = "visit_doctor"
	ProviderTypeLab         ProviderType = "lab"
	ProviderTypeHospital    ProviderType = "hospital"
)

// Valid reports whether t is a known provider type
func (t ProviderType) Valid() bool {
	switch t {
	case ProviderTypeOrganizer, ProviderTypeVisitDoctor, ProviderTypeLab, ProviderTypeHospital:
		return true
	}
	return false
}

// Role returns the identity role of a provider of this type
func (t ProviderType) Role() Role {
	return Role(t)
}

// PaidStatus is the settlement state of a provider's fee balance
type PaidStatus string

const (
	PaidStatusPending PaidStatus = "PENDING"
	PaidStatusPaid    PaidStatus = "PAID"
	PaidStatusFailed  PaidStatus = "FAILED"
)

// Valid reports whether s is a known paid status
func (s PaidStatus) Valid() bool {
	return s == PaidStatusPending || s == PaidStatusPaid || s == PaidStatusFailed
}

// Ledger is the revenue state embedded in every provider record.
// Invariants: AdminRevenue never decreases; PaidStatus == PAID implies FeeBalance == 0.
type Ledger struct {
	AdminRevenue float64    `json:"admin_revenue" db:"admin_revenue"`
	FeeBalance   float64    `json:"fee_balance" db:"fee_balance"`
	PaidStatus   PaidStatus `json:"paid_status" db:"paid_status"`
	ServiceStop  bool       `json:"service_stop" db:"service_stop"`
}

// RevenueUpdate carries the optional fields of an admin revenue update
type RevenueUpdate struct {
	FeeBalance *float64    `json:"fee_balance,omitempty"`
	PaidStatus *PaidStatus `json:"paid_status,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u RevenueUpdate) IsEmpty() bool {
	return u.FeeBalance == nil && u.PaidStatus == nil
}

// AccrueCommission adds a commission to AdminRevenue
func (l *Ledger) AccrueCommission(amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("commission must be a non-negative amount, got %v", amount)
	}
	l.AdminRevenue = RoundMoney(l.AdminRevenue + amount)
	return nil
}

// ErrBalanceWhilePaid rejects a positive balance on a PAID ledger that does not also change the status
var ErrBalanceWhilePaid = errors.New("provider is PAID; set paid_status to PENDING or FAILED to record a balance")

// Apply overwrites the balance and/or paid status. Setting PAID forces the
// balance to zero and, when reactivate is true, lifts a suspension.
func (l *Ledger) Apply(u RevenueUpdate, reactivate bool) error {
	if u.FeeBalance != nil {
		if *u.FeeBalance < 0 || math.IsNaN(*u.FeeBalance) || math.IsInf(*u.FeeBalance, 0) {
			return fmt.Errorf("fee balance must be a non-negative amount")
		}
	}
	if u.PaidStatus != nil && !u.PaidStatus.Valid() {
		return fmt.Errorf("unknown paid status %q", *u.PaidStatus)
	}
	if u.PaidStatus == nil && l.PaidStatus == PaidStatusPaid && u.FeeBalance != nil && RoundMoney(*u.FeeBalance) > 0 {
		return ErrBalanceWhilePaid
	}

	if u.FeeBalance != nil {
		l.FeeBalance = RoundMoney(*u.FeeBalance)
	}
	if u.PaidStatus != nil {
		l.PaidStatus = *u.PaidStatus
	}
	if l.PaidStatus == PaidStatusPaid {
		l.FeeBalance = 0
		if reactivate {
			l.ServiceStop = false
		}
	}
	return nil
}

// Suspend sets ServiceStop and reports whether it changed
func (l *Ledger) Suspend() bool {
	if l.ServiceStop {
		return false
	}
	l.ServiceStop = true
	return true
}

// Provider is an organizer, visit doctor, lab or hospital. The ledger lives on
// the provider row; Version guards every read-modify-write of it.
type Provider struct {
	ID          string       `json:"id" db:"id"`
	Type        ProviderType `json:"type" db:"provider_type"`
	Name        string       `json:"name" db:"name"`
	Phone       string       `json:"phone" db:"phone"`
	City        string       `json:"city" db:"city"`
	Ledger      `json:"ledger"`
	LastEventAt *time.Time `json:"last_event_at,omitempty" db:"last_event_at"`
	Version     int64      `json:"version" db:"version"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// RoundMoney rounds an amount to two decimal places
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
