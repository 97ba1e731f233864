// Package domain holds the core auth types shared by the service, store, and
// HTTP layers.
package domain

import "fmt"

// Role describes what a user is allowed to do. Roles are flat, not
// hierarchical: an admin check matches admins only.
type Role string

const (
	RoleStudent Role = "student"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role string, typically one read from a token or
// from storage.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleCoach, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}
