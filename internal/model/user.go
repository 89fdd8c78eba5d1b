// Package model defines the data structures used throughout the application.
//
// Struct tags carry two mappings: `json` for the API wire format and `db`
// for the column names the repository scans into.
package model

import (
	"strings"
	"time"
)

// Role is the account type. It decides which routes a user may call.
type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleNGO       Role = "ngo"
	RoleAdmin     Role = "admin"
)

// Roles lists every valid role, in display order.
var Roles = []Role{RoleVolunteer, RoleNGO, RoleAdmin}

// ParseRole normalizes s ("NGO", " volunteer ") and reports whether it names
// a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleVolunteer, RoleNGO, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account.
//
// PasswordHash is tagged json:"-" so a User can be written to a response
// as-is without leaking the bcrypt hash.
//
// ProfilePicture is a storage reference (a /uploads/... path or an object
// URL). Empty means "no picture"; the column is NOT NULL DEFAULT ''.
type User struct {
	ID             string    `json:"id"             db:"id"`
	Username       string    `json:"username"       db:"username"`
	Email          string    `json:"email"          db:"email"`
	PasswordHash   string    `json:"-"              db:"password_hash"`
	Role           Role      `json:"role"           db:"role"`
	ProfilePicture string    `json:"profilePicture" db:"profile_picture"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}

// Account is a User together with whichever profile its role carries.
// Login and /auth/validate return this shape.
type Account struct {
	*User
	NGOProfile       *NGOProfile       `json:"ngoProfile,omitempty"`
	VolunteerProfile *VolunteerProfile `json:"volunteerProfile,omitempty"`
}
