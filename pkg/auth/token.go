package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// EmailTokenTTL bounds email-verification links
	EmailTokenTTL = 7 * 24 * time.Hour
	// ResetTokenTTL bounds password-reset links
	ResetTokenTTL = 15 * time.Minute
)

// AccessClaims asserts an authenticated session; subject is the username
type AccessClaims struct {
	jwt.RegisteredClaims
}

// EmailClaims asserts ownership of an email address; subject is the email
type EmailClaims struct {
	jwt.RegisteredClaims
}

// ResetClaims carries the requested new password through the reset link.
// The token is signed but not encrypted; see the password-reset handler.
type ResetClaims struct {
	Password string `json:"password"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies the three token variants with a single
// HMAC key fixed per deployment.
type TokenCodec struct {
	secret    []byte
	method    jwt.SigningMethod
	accessTTL time.Duration
}

// NewTokenCodec creates a codec. Only HS256 is supported; any other
// algorithm is a configuration error, fatal at startup.
func NewTokenCodec(secret, algorithm string, accessTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: empty signing secret", ErrEncoding)
	}
	if algorithm != "HS256" {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrEncoding, algorithm)
	}
	return &TokenCodec{
		secret:    []byte(secret),
		method:    jwt.SigningMethodHS256,
		accessTTL: accessTTL,
	}, nil
}

// AccessTokenTTL returns the configured session duration
func (c *TokenCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

// MintAccessToken issues a session token with subject=username
func (c *TokenCodec) MintAccessToken(username string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}
	return c.sign(claims)
}

// MintEmailToken issues an email-verification token with subject=email
func (c *TokenCodec) MintEmailToken(email string) (string, error) {
	now := time.Now()
	claims := EmailClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(EmailTokenTTL)),
		},
	}
	return c.sign(claims)
}

// MintResetToken issues a password-reset token with subject=email,
// carrying the requested new password
func (c *TokenCodec) MintResetToken(email, newPassword string) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		Password: newPassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}
	return c.sign(claims)
}

func (c *TokenCodec) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(c.method, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return signed, nil
}

// ParseAccessClaims verifies an access token. Every failure collapses into
// ErrInvalidToken so verification outcomes leak nothing about the cause.
func (c *TokenCodec) ParseAccessClaims(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseEmailClaims verifies an email-verification token
func (c *TokenCodec) ParseEmailClaims(tokenString string) (*EmailClaims, error) {
	claims := &EmailClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseResetClaims verifies a password-reset token
func (c *TokenCodec) ParseResetClaims(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *TokenCodec) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
