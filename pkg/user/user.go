package user

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
	RoleAccountant Role = "accountant"
)

var ErrInvalidRole = errors.New("invalid role")

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleEmployee, RoleAccountant:
		return Role(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
}

type User struct {
	Id       int
	Uid      string
	Name     string
	Role     Role
	Settings Settings
}

type Settings struct {
	// Timezone is an IANA name. Day and month boundaries of the user's hours are computed in it.
	Timezone string
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanReadAll reports whether the user may see hours of other users.
func (u User) CanReadAll() bool {
	return u.Role == RoleAdmin || u.Role == RoleAccountant
}

// HasRole reports whether the user has one of roles.
func (u User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
