package types

import "time"

// Role labels understood by the authorization layer.
const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// User represents an employee account in the system.
// Workers identify themselves at the kiosk with a PIN;
// admins additionally carry a password for the management API.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the employee's display or full name.
	Name string `json:"name" db:"name"`

	// PIN is the 4-digit kiosk code. It is unique within a
	// facility but may repeat across facilities.
	PIN string `json:"pin" db:"pin"`

	// Role indicates the user's authorization level
	// ("admin" or "worker").
	Role string `json:"role" db:"role"`

	// FacilityID scopes the user to one facility ("almacén").
	// Users, events, and exports are always partitioned by it.
	FacilityID string `json:"facilityId" db:"facility_id"`

	// PasswordHash stores the bcrypt hash for admin accounts.
	// Empty for workers. Never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
