package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of employee roles. Every switch over Role must
// handle all three values.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleLead       Role = "lead"
	RoleTechnician Role = "technician"
)

// Roles lists every valid role, highest privilege first.
var Roles = []Role{RoleAdmin, RoleLead, RoleTechnician}

// ParseRole converts a stored or submitted role name into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleLead, RoleTechnician:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// UnmarshalText rejects role names outside the enum.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Level returns the hierarchy level (lower number = more privilege).
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 0
	case RoleLead:
		return 1
	case RoleTechnician:
		return 2
	}
	return 3
}

// Permissions returns the permission patterns granted to the role.
// Patterns use the resource:action form understood by utils.MatchesPermission.
func (r Role) Permissions() []string {
	switch r {
	case RoleAdmin:
		return []string{"*:*"}
	case RoleLead:
		return []string{
			"workorder:*",
			"employee:read",
			"vehicle:read",
			"location:read",
			"settings:read",
		}
	case RoleTechnician:
		return []string{
			"workorder:create",
			"workorder:read",
			"workorder:update",
			"vehicle:read",
			"location:read",
			"settings:read",
		}
	}
	return nil
}

// Label is the Croatian display name used on exports.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleLead:
		return "Voditelj"
	case RoleTechnician:
		return "Tehničar"
	}
	return string(r)
}
