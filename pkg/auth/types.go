package auth

import "context"

// Role represents the closed set of user roles
type Role string

const (
	// RoleUser is the default role assigned at registration
	RoleUser Role = "user"
	// RoleAdmin grants access to privileged operations
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is a member of the closed set
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the authenticated principal handed to route handlers. It is
// also the denormalized snapshot stored in the identity cache.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"is_verified"`
	Role     Role   `json:"role"`
}

// UserRecord is the directory's authoritative view of a user. The password
// hash never leaves the auth boundary.
type UserRecord struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	Role         Role
}

// Identity converts the record into the snapshot handed to callers
func (u *UserRecord) Identity() *Identity {
	return &Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Verified: u.Verified,
		Role:     u.Role,
	}
}

// Directory is the authoritative user store consulted on cache misses and at
// login. Implementations return (nil, nil) when no record exists.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindByID(ctx context.Context, id int64) (*UserRecord, error)
}
