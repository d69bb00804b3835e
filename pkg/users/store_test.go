package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolodexhq/rolodex/pkg/auth"
)

var userCols = []string{"id", "username", "email", "password_hash", "avatar_url", "verified", "role", "created_at", "updated_at"}

func userRow(t *testing.T) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice", "alice@example.com", "$2a$10$hash", "", false, "user", now, now)
}

func newStoreTest(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestStoreCreate(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", "$2a$10$hash", auth.RoleUser).
		WillReturnRows(userRow(t))

	user, err := store.Create(context.Background(), "alice", "alice@example.com", "$2a$10$hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, auth.RoleUser, user.Role)
	assert.False(t, user.Verified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateUniqueViolation(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	_, err := store.Create(context.Background(), "alice", "alice@example.com", "hash")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStoreFindByUsername(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(userRow(t))

	user, err := store.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestStoreFindByUsernameAbsent(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(userCols))

	user, err := store.FindByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestStoreFindByEmail(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(userRow(t))

	user, err := store.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
}

func TestStoreConfirmEmail(t *testing.T) {
	store, mock := newStoreTest(t)

	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice", "alice@example.com", "$2a$10$hash", "", true, "user", now, now)

	mock.ExpectQuery("UPDATE users").
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	user, err := store.ConfirmEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.Verified)
}

func TestStoreConfirmEmailUnknown(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("UPDATE users").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := store.ConfirmEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdatePassword(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("UPDATE users").
		WithArgs("alice@example.com", "$2a$10$newhash").
		WillReturnRows(userRow(t))

	user, err := store.UpdatePassword(context.Background(), "alice@example.com", "$2a$10$newhash")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestStoreUpdateAvatar(t *testing.T) {
	store, mock := newStoreTest(t)

	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice", "alice@example.com", "$2a$10$hash", "https://cdn.example.com/a.png", true, "user", now, now)

	mock.ExpectQuery("UPDATE users").
		WithArgs("alice", "https://cdn.example.com/a.png").
		WillReturnRows(rows)

	user, err := store.UpdateAvatar(context.Background(), "alice", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", user.AvatarURL)
}

func TestStoreCount(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	total, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
}

func TestStoreQueryError(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WillReturnError(errors.New("connection refused"))

	_, err := store.FindByUsername(context.Background(), "alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
