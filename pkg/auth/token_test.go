package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, "HS256", 15*time.Minute)
	require.NoError(t, err)
	return codec
}

func TestNewTokenCodecRejectsBadConfig(t *testing.T) {
	_, err := NewTokenCodec("", "HS256", time.Minute)
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = NewTokenCodec(testSecret, "RS256", time.Minute)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.MintAccessToken("alice")
	require.NoError(t, err)

	claims, err := codec.ParseAccessClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestEmailTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.MintEmailToken("alice@example.com")
	require.NoError(t, err)

	claims, err := codec.ParseEmailClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(EmailTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
	require.NotNil(t, claims.IssuedAt)
}

func TestResetTokenCarriesEmailAndPassword(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.MintResetToken("alice@example.com", "new-password")
	require.NoError(t, err)

	claims, err := codec.ParseResetClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, "new-password", claims.Password)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	codec := newTestCodec(t)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.ParseAccessClaims(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsTamperedSignature(t *testing.T) {
	codec := newTestCodec(t)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = codec.ParseAccessClaims(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	codec := newTestCodec(t)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.ParseAccessClaims(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.ParseAccessClaims("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = codec.ParseAccessClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
