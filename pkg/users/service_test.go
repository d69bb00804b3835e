package users

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolodexhq/rolodex/pkg/auth"
	"github.com/rolodexhq/rolodex/pkg/observability"
)

type serviceFixture struct {
	service *Service
	mock    sqlmock.Sqlmock
	redis   *miniredis.Miniredis
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cache := auth.NewIdentityCache(client, time.Hour, logger, metrics)

	return &serviceFixture{
		service: NewService(NewStore(db), cache, auth.NewPasswordHasher(), logger, metrics),
		mock:    mock,
		redis:   mr,
	}
}

func TestServiceRegister(t *testing.T) {
	f := newServiceFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	f.mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(userRow(t))

	user, err := f.service.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestServiceRegisterEmailTaken(t *testing.T) {
	f := newServiceFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(userRow(t))

	_, err := f.service.Register(context.Background(), "alice2", "alice@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestServiceConfirmEmailInvalidatesCache(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// Seed a stale snapshot with verified=false
	require.NoError(t, f.redis.Set(auth.IdentityCacheKey("alice"),
		`{"id":1,"username":"alice","email":"alice@example.com","is_verified":false,"role":"user"}`))

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(userRow(t))

	now := time.Now()
	confirmed := sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice", "alice@example.com", "$2a$10$hash", "", true, "user", now, now)
	f.mock.ExpectQuery("UPDATE users").
		WithArgs("alice@example.com").
		WillReturnRows(confirmed)

	already, err := f.service.ConfirmEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, already)
	assert.False(t, f.redis.Exists(auth.IdentityCacheKey("alice")), "stale snapshot must be invalidated")
}

func TestServiceConfirmEmailAlreadyVerified(t *testing.T) {
	f := newServiceFixture(t)

	now := time.Now()
	verified := sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice", "alice@example.com", "$2a$10$hash", "", true, "user", now, now)
	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(verified)

	already, err := f.service.ConfirmEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, already)
}

func TestServiceConfirmEmailUnknown(t *testing.T) {
	f := newServiceFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := f.service.ConfirmEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceResetPasswordInvalidatesCache(t *testing.T) {
	f := newServiceFixture(t)

	require.NoError(t, f.redis.Set(auth.IdentityCacheKey("alice"),
		`{"id":1,"username":"alice","email":"alice@example.com","is_verified":true,"role":"user"}`))

	f.mock.ExpectQuery("UPDATE users").
		WillReturnRows(userRow(t))

	err := f.service.ResetPassword(context.Background(), "alice@example.com", "new-password")
	require.NoError(t, err)
	assert.False(t, f.redis.Exists(auth.IdentityCacheKey("alice")))
}

func TestServiceUpdateAvatarInvalidatesCache(t *testing.T) {
	f := newServiceFixture(t)

	require.NoError(t, f.redis.Set(auth.IdentityCacheKey("alice"),
		`{"id":1,"username":"alice","email":"alice@example.com","is_verified":true,"role":"admin"}`))

	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice", "alice@example.com", "$2a$10$hash", "https://cdn.example.com/a.png", true, "admin", now, now)
	f.mock.ExpectQuery("UPDATE users").
		WithArgs("alice", "https://cdn.example.com/a.png").
		WillReturnRows(rows)

	user, err := f.service.UpdateAvatar(context.Background(), "alice", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", user.AvatarURL)
	assert.False(t, f.redis.Exists(auth.IdentityCacheKey("alice")))
}

func TestDirectoryAdaptsStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	directory := NewDirectory(NewStore(db))

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(userRow(t))

	record, err := directory.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, auth.RoleUser, record.Role)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(userCols))

	record, err = directory.FindByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, record)
}
