package users

// RoleCheck is a pure decision function applied to an already-authenticated
// Identity before a role gated operation proceeds.
type RoleCheck func(Identity) error

// RequireRole builds a check that admits identities whose role is a member
// of the allowed set. Membership is exact-match over the Role enumeration;
// canonicalization happened when the token was decoded. Non-membership
// yields ErrForbidden, which is always distinct from ErrUnauthenticated.
func RequireRole(allowed ...Role) RoleCheck {
	return func(identity Identity) error {
		if identity.Role.In(allowed...) {
			return nil
		}
		return ErrForbidden
	}
}

// RequireAtLeast builds a check admitting identities at or above the given
// role in the hierarchy.
func RequireAtLeast(min Role) RoleCheck {
	return func(identity Identity) error {
		if identity.Role.IsAtLeast(min) {
			return nil
		}
		return ErrForbidden
	}
}
