package users

import "strings"

// Role is the closed set of account roles. The zero value is not a valid
// role; new accounts start as RoleAnonymous until their email is verified.
type Role string

const (
	// RoleAnonymous is a registered account that has not verified its email
	RoleAnonymous Role = "ANONYMOUS"
	// RoleAuthenticated is a verified, regular account
	RoleAuthenticated Role = "AUTHENTICATED"
	// RoleManager can manage user records
	RoleManager Role = "MANAGER"
	// RoleAdmin can manage user records and administrative state (e.g. unlock)
	RoleAdmin Role = "ADMIN"
)

// ParseRole canonicalizes a raw string into a Role. This is the single
// normalization point; callers holding a Role compare by equality.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if the role meets the minimum required level
func (r Role) IsAtLeast(min Role) bool {
	current, ok := roleHierarchy[r]
	if !ok {
		return false
	}

	required, ok := roleHierarchy[min]
	if !ok {
		return false
	}

	return current >= required
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

var roleHierarchy = map[Role]int{
	RoleAnonymous:     0,
	RoleAuthenticated: 1,
	RoleManager:       2,
	RoleAdmin:         3,
}

// AllRoles returns the predefined roles in hierarchical order
func AllRoles() []Role {
	return []Role{
		RoleAnonymous,
		RoleAuthenticated,
		RoleManager,
		RoleAdmin,
	}
}
