package contacts

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a contact does not exist or belongs to
// another owner
var ErrNotFound = errors.New("contact not found")

// Contact is one address book entry
type Contact struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  time.Time `json:"birthday"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries the caller-editable fields of a contact
type Input struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  time.Time `json:"birthday"`
	Notes     string    `json:"notes"`
}

// SearchFilter narrows List results; empty fields match everything
type SearchFilter struct {
	FirstName string
	LastName  string
	Email     string
}

// Empty reports whether the filter matches everything
func (f SearchFilter) Empty() bool {
	return f.FirstName == "" && f.LastName == "" && f.Email == ""
}
