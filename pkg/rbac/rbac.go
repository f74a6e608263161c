package rbac

import (
	"strings"

	"github.com/commercegrid/identity-service/pkg/errors"
)

// Role is an access level assigned to a user. Only the two declared
// constants are constructible through ParseRole.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role value and returns the typed Role.
// Returns an INVALID_ROLE error for anything other than "user" or "admin".
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidRole, "unknown role: %s", raw)
	}
}

// String returns the role value
func (r Role) String() string {
	return string(r)
}

// RequireRole checks that the caller holds the required role.
// There is no role hierarchy; the check is strict equality.
func RequireRole(caller, required Role) error {
	if caller != required {
		return errors.New(errors.ErrCodeForbidden, "insufficient permissions")
	}
	return nil
}

// ValidateAssignment checks that a raw value names an assignable role
func ValidateAssignment(raw string) (Role, error) {
	return ParseRole(raw)
}
