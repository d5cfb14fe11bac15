package entities

import "time"

// Role tags every identity that can own a phone number
type Role string

const (
	RolePatient     Role = "patient"
	RoleOrganizer   Role = "organizer"
	RoleVisitDoctor Role = "visit_doctor"
	RoleLab         Role = "lab"
	RoleHospital    Role = "hospital"
	RoleDoctor      Role = "doctor"
	RoleStaff       Role = "staff"
	RoleAdmin       Role = "admin"
)

// IsMemberRole reports whether r is a nested sub-identity role
func (r Role) IsMemberRole() bool {
	return r == RoleDoctor || r == RoleStaff
}

// Patient represents a patient who books offerings
type Patient struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	City      string    `json:"city" db:"city"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Member is a doctor or staff identity nested under a provider's offering.
// ParentID points at the event, visit slot or (for hospitals and labs) the provider itself.
type Member struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	ParentID  string    `json:"parent_id" db:"parent_id"`
	Role      Role      `json:"role" db:"role"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PhoneRecord is one row of the flat phone registry. Exactly one record exists
// per phone number across every identity namespace.
type PhoneRecord struct {
	Phone      string    `json:"phone" db:"phone"`
	IdentityID string    `json:"identity_id" db:"identity_id"`
	Role       Role      `json:"role" db:"role"`
	OwnerID    string    `json:"owner_id,omitempty" db:"owner_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
