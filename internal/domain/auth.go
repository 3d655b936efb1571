package domain

// Identity is the caller resolved from a verified bearer token.
type Identity struct {
	UserID string
	Role   Role
}

// IsResolver reports whether the caller holds the resolver role.
func (i Identity) IsResolver() bool {
	return i.Role == RoleResolver
}
