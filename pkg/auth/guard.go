package auth

// RequireRole checks that the identity carries one of the allowed roles.
// A nil identity or a role outside the allowed set yields ErrForbidden.
func RequireRole(identity *Identity, allowed ...Role) error {
	if identity == nil {
		return ErrForbidden
	}
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// RequireAdmin checks that the identity carries the admin role
func RequireAdmin(identity *Identity) error {
	return RequireRole(identity, RoleAdmin)
}
