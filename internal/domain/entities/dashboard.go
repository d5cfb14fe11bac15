package entities

import "time"

// DashboardCounts holds simple read-side counts
type DashboardCounts struct {
	Patients           int64 `json:"patients" db:"patients"`
	Organizers         int64 `json:"organizers" db:"organizers"`
	VisitDoctors       int64 `json:"visit_doctors" db:"visit_doctors"`
	Labs               int64 `json:"labs" db:"labs"`
	Hospitals          int64 `json:"hospitals" db:"hospitals"`
	SuspendedProviders int64 `json:"suspended_providers" db:"suspended_providers"`
	Bookings           int64 `json:"bookings" db:"bookings"`
	PendingBookings    int64 `json:"pending_bookings" db:"pending_bookings"`
	BookedBookings     int64 `json:"booked_bookings" db:"booked_bookings"`
	CompletedBookings  int64 `json:"completed_bookings" db:"completed_bookings"`
	CancelledBookings  int64 `json:"cancelled_bookings" db:"cancelled_bookings"`
}

// DashboardAggregates is the admin dashboard summary
type DashboardAggregates struct {
	Counts              DashboardCounts `json:"counts"`
	TotalRevenue        float64         `json:"total_revenue"`
	TotalPendingRevenue float64         `json:"total_pending_revenue"`
	GeneratedAt         time.Time       `json:"generated_at"`
}
