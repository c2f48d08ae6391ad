package enums

import "fmt"

// Role is the account-level role every user carries.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleMaster  Role = "master"
)

var validRoles = []Role{
	RoleUser,
	RoleManager,
	RoleMaster,
}

// Roles returns every known role in a stable order.
func Roles() []Role {
	out := make([]Role, len(validRoles))
	copy(out, validRoles)
	return out
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
