package domain

import "time"

// Role enumerates the two kinds of accounts.
type Role string

const (
	RoleStudent  Role = "student"
	RoleResolver Role = "resolver"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleResolver
}

// User is a registered student or resolver. Designation is only meaningful for resolvers.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Designation  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the public projection of a user.
type UserSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Role        Role    `json:"type"`
	Designation *string `json:"designation,omitempty"`
}

// Summary strips credentials from the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Designation: u.Designation,
	}
}

// DesignationOrEmpty returns the resolver designation or "".
func (u UserSummary) DesignationOrEmpty() string {
	if u.Designation == nil {
		return ""
	}
	return *u.Designation
}
