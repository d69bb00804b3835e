package users

import (
	"errors"
	"time"

	"github.com/rolodexhq/rolodex/pkg/auth"
)

// ErrAlreadyExists is returned when a username or email is already taken
var ErrAlreadyExists = errors.New("account already exists")

// ErrNotFound is returned when a referenced user does not exist
var ErrNotFound = errors.New("user not found")

// User is a full account row
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar"`
	Verified     bool      `json:"is_verified"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Record converts the row to the authentication view of the account
func (u *User) Record() *auth.UserRecord {
	return &auth.UserRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Verified:     u.Verified,
		Role:         u.Role,
	}
}
