package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const contactColumns = "id, owner_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at"

// Store owns all SQL against the contacts table. Every method scopes its
// query to the owner ID.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an existing connection pool
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func scanContact(row *sql.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Birthday,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}
	return &c, nil
}

func collectContacts(rows *sql.Rows) ([]*Contact, error) {
	defer rows.Close()

	var out []*Contact
	for rows.Next() {
		var c Contact
		err := rows.Scan(
			&c.ID,
			&c.OwnerID,
			&c.FirstName,
			&c.LastName,
			&c.Email,
			&c.Phone,
			&c.Birthday,
			&c.Notes,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return out, nil
}

// Create inserts a contact for the owner
func (s *Store) Create(ctx context.Context, ownerID int64, in Input) (*Contact, error) {
	query := `
		INSERT INTO contacts (owner_id, first_name, last_name, email, phone, birthday, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + contactColumns

	contact, err := scanContact(s.db.QueryRowContext(ctx, query,
		ownerID, in.FirstName, in.LastName, in.Email, in.Phone, in.Birthday, in.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

// Get returns the owner's contact, or ErrNotFound. A contact owned by a
// different account is indistinguishable from a missing one.
func (s *Store) Get(ctx context.Context, ownerID, contactID int64) (*Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND owner_id = $2`
	return scanContact(s.db.QueryRowContext(ctx, query, contactID, ownerID))
}

// List returns a page of the owner's contacts, optionally narrowed by
// the filter. Matching is case-insensitive prefix on names and substring
// on email.
func (s *Store) List(ctx context.Context, ownerID int64, filter SearchFilter, limit, offset int) ([]*Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1
		  AND ($2 = '' OR first_name ILIKE $2 || '%')
		  AND ($3 = '' OR last_name ILIKE $3 || '%')
		  AND ($4 = '' OR email ILIKE '%' || $4 || '%')
		ORDER BY last_name, first_name, id
		LIMIT $5 OFFSET $6
	`

	rows, err := s.db.QueryContext(ctx, query,
		ownerID, filter.FirstName, filter.LastName, filter.Email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return collectContacts(rows)
}

// Update replaces all editable fields of the owner's contact
func (s *Store) Update(ctx context.Context, ownerID, contactID int64, in Input) (*Contact, error) {
	query := `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6,
		    birthday = $7, notes = $8, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + contactColumns

	return scanContact(s.db.QueryRowContext(ctx, query,
		contactID, ownerID, in.FirstName, in.LastName, in.Email, in.Phone, in.Birthday, in.Notes))
}

// Delete removes the owner's contact, returning ErrNotFound when nothing
// matched
func (s *Store) Delete(ctx context.Context, ownerID, contactID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = $1 AND owner_id = $2`, contactID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls
// within the next days, year boundary included
func (s *Store) UpcomingBirthdays(ctx context.Context, ownerID int64, days int) ([]*Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1
		  AND (
		      (DATE_PART('doy', birthday)::int - DATE_PART('doy', CURRENT_DATE)::int + 365) % 365
		  ) BETWEEN 0 AND $2
		ORDER BY DATE_PART('doy', birthday), id
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming birthdays: %w", err)
	}
	return collectContacts(rows)
}

// BirthdaysOn returns the owner's contacts whose birthday month and day
// match the given date. Used by the daily greeting job.
func (s *Store) BirthdaysOn(ctx context.Context, ownerID int64, monthDay string) ([]*Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1 AND TO_CHAR(birthday, 'MM-DD') = $2
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, monthDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query birthdays: %w", err)
	}
	return collectContacts(rows)
}

// Count returns the total number of contacts across all owners
func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return total, nil
}
