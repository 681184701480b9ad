package domain

import "time"

// Role is the privilege level attached to a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// NormalizeRole maps a stored role string to a Role, defaulting unset or
// unknown values to RoleUser. Applied at the data-model boundary so no
// consumer ever sees an empty role.
func NormalizeRole(s string) Role {
	role := Role(s)
	if !role.IsValid() {
		return RoleUser
	}
	return role
}

// User represents a registered account. PasswordHash must never appear in
// any response payload; handlers build response bodies explicitly.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
}
