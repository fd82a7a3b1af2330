package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system. It never changes after creation.
type Role string

const (
	RoleLoser    Role = "LOSER"
	RoleFinder   Role = "FINDER"
	RoleOffice   Role = "OFFICE"
	RoleSecurity Role = "SECURITY"
	RoleAdmin    Role = "ADMIN"
	RoleCourier  Role = "COURIER"
)

// AllRoles lists every role
var AllRoles = []Role{RoleLoser, RoleFinder, RoleOffice, RoleSecurity, RoleAdmin, RoleCourier}

// Status represents user status
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
)

// Affiliation is the user's relation to the campus
type Affiliation string

const (
	AffiliationStudent  Affiliation = "STUDENT"
	AffiliationStaff    Affiliation = "STAFF"
	AffiliationExternal Affiliation = "EXTERNAL"
)

// User represents a user account
type User struct {
	ID           uuid.UUID      `db:"id"`
	Username     string         `db:"username"`
	PasswordHash string         `db:"password_hash"`
	Nickname     string         `db:"nickname"`
	Role         Role           `db:"role"`
	Status       Status         `db:"status"`
	Affiliation  Affiliation    `db:"affiliation"`
	Phone        sql.NullString `db:"phone"`
	Email        sql.NullString `db:"email"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// IsActive returns true if user is not blocked
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff reports whether the role belongs to campus staff
func (r Role) IsStaff() bool {
	switch r {
	case RoleOffice, RoleSecurity, RoleAdmin, RoleCourier:
		return true
	}
	return false
}

// SelfRegisterRoles are the roles a visitor may pick on sign up.
// Staff accounts are provisioned by operators.
func SelfRegisterRoles() []Role {
	return []Role{RoleLoser, RoleFinder, RoleCourier}
}

// IsValidRole checks if role is one of the six roles
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if string(r) == role {
			return true
		}
	}
	return false
}

// CanSelfRegister checks if role may be chosen during registration
func CanSelfRegister(role string) bool {
	for _, r := range SelfRegisterRoles() {
		if string(r) == role {
			return true
		}
	}
	return false
}
