package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher performs one-way password hashing and verification using
// bcrypt. Stateless and safe for concurrent use.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the default bcrypt cost
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

// Hash produces a salted, self-describing hash of the password. Two calls on
// the same input never produce the same hash.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether the password matches the stored hash. A malformed
// stored hash is treated as a non-match, never an error.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
