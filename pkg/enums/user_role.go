package enums

import "fmt"

// UserRole is the role carried in access tokens.
type UserRole string

const (
	UserRoleUser    UserRole = "user"
	UserRoleAdmin   UserRole = "admin"
	UserRoleService UserRole = "service"
)

// IsValid reports whether the value matches a known role.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin, UserRoleService:
		return true
	}
	return false
}

// IsPrivileged reports whether the role may drive ledger mutations for other users.
func (r UserRole) IsPrivileged() bool {
	return r == UserRoleAdmin || r == UserRoleService
}

// ParseUserRole converts raw input into UserRole.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
