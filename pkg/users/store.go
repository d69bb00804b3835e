package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/rolodexhq/rolodex/pkg/auth"
)

const userColumns = "id, username, email, password_hash, avatar_url, verified, role, created_at, updated_at"

// Store owns all SQL against the users table
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an existing connection pool
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.Verified,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create inserts a new unverified account. A taken username or email
// yields ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	row := s.db.QueryRowContext(ctx, query, username, email, passwordHash, auth.RoleUser)

	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.Verified,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyExists
	} else if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &u, nil
}

// FindByUsername returns the user or (nil, nil) when absent
func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, username))
}

// FindByEmail returns the user or (nil, nil) when absent
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// FindByID returns the user or (nil, nil) when absent
func (s *Store) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// ConfirmEmail marks the account owning the email as verified
func (s *Store) ConfirmEmail(ctx context.Context, email string) (*User, error) {
	query := `
		UPDATE users
		SET verified = TRUE, updated_at = NOW()
		WHERE email = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdatePassword replaces the password hash for the account owning the email
func (s *Store) UpdatePassword(ctx context.Context, email, passwordHash string) (*User, error) {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE email = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateAvatar replaces the avatar URL for the account owning the username
func (s *Store) UpdateAvatar(ctx context.Context, username, avatarURL string) (*User, error) {
	query := `
		UPDATE users
		SET avatar_url = $2, updated_at = NOW()
		WHERE username = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, username, avatarURL))
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Count returns the total number of accounts
func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// ListVerified returns all verified accounts, used by the birthday job to
// decide which owners get greeting digests
func (s *Store) ListVerified(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verified = TRUE ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.AvatarURL,
			&u.Verified,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return out, nil
}
