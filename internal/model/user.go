// Package model defines the persistent entities and the request principal.
package model

import "time"

// Role names form a fixed closed set, seeded once at startup.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User mirrors the 'users' table. The email is stored case-sensitively as
// received and is the subject of every access token issued for the account.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Roles        []string // role names from user_roles, loaded with the user
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user carries the named role.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Principal is the resolved identity attached to an authenticated request.
// The middleware builds it from a verified access token plus a user lookup;
// handlers read it from the request context and never re-authenticate.
type Principal struct {
	UserID uint64
	Email  string
	Roles  []string
}

// HasRole reports whether the principal carries the named role.
func (p Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}
