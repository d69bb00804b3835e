package auth

import (
	"context"
	"fmt"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

// Authenticator resolves bearer tokens into identities and mints tokens at
// login. All collaborators are injected at construction.
type Authenticator struct {
	codec     *TokenCodec
	cache     *IdentityCache
	directory Directory
	hasher    *PasswordHasher
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewAuthenticator wires the authentication core together
func NewAuthenticator(codec *TokenCodec, cache *IdentityCache, directory Directory, hasher *PasswordHasher, logger *observability.Logger, metrics *observability.Metrics) *Authenticator {
	return &Authenticator{
		codec:     codec,
		cache:     cache,
		directory: directory,
		hasher:    hasher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve verifies an access token and returns the identity it asserts.
// The cache is consulted first; on a miss the directory is queried and the
// snapshot written back. Every failure collapses into ErrUnauthorized.
func (a *Authenticator) Resolve(ctx context.Context, tokenString string) (*Identity, error) {
	claims, err := a.codec.ParseAccessClaims(tokenString)
	if err != nil {
		a.metrics.TokenResolutionsTotal.WithLabelValues("invalid_token").Inc()
		return nil, ErrUnauthorized
	}

	username := claims.Subject
	if username == "" {
		a.metrics.TokenResolutionsTotal.WithLabelValues("invalid_token").Inc()
		return nil, ErrUnauthorized
	}

	if identity, ok := a.cache.Get(ctx, username); ok {
		a.metrics.TokenResolutionsTotal.WithLabelValues("cache_hit").Inc()
		return identity, nil
	}

	record, err := a.directory.FindByUsername(ctx, username)
	if err != nil {
		a.metrics.TokenResolutionsTotal.WithLabelValues("directory_error").Inc()
		a.logger.WithError(err).WithField("username", username).Error("directory lookup failed during token resolution")
		return nil, ErrUnauthorized
	}
	if record == nil {
		a.metrics.TokenResolutionsTotal.WithLabelValues("unknown_subject").Inc()
		return nil, ErrUnauthorized
	}

	identity := record.Identity()
	a.cache.Set(ctx, identity)
	a.logger.WithField("username", username).Debug("identity cached after directory lookup")

	a.metrics.TokenResolutionsTotal.WithLabelValues("directory_hit").Inc()
	return identity, nil
}

// Login verifies credentials and mints an access token. An unknown username
// and a wrong password are indistinguishable to the caller.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	record, err := a.directory.FindByUsername(ctx, username)
	if err != nil {
		a.metrics.LoginsTotal.WithLabelValues("error").Inc()
		a.logger.WithError(err).WithField("username", username).Error("directory lookup failed during login")
		return "", ErrUnauthorized
	}
	if record == nil {
		a.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", ErrUnauthorized
	}

	if !a.hasher.Verify(password, record.PasswordHash) {
		a.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", ErrUnauthorized
	}

	token, err := a.codec.MintAccessToken(record.Username)
	if err != nil {
		a.metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to mint access token: %w", err)
	}

	a.metrics.LoginsTotal.WithLabelValues("success").Inc()
	return token, nil
}

// IssueEmailVerificationToken mints a 7-day token asserting the email
func (a *Authenticator) IssueEmailVerificationToken(email string) (string, error) {
	return a.codec.MintEmailToken(email)
}

// ResolveEmailVerificationToken returns the email asserted by the token.
// Failures are ErrUnprocessableToken: email-link failures are user-facing
// and recoverable, unlike session failures.
func (a *Authenticator) ResolveEmailVerificationToken(tokenString string) (string, error) {
	claims, err := a.codec.ParseEmailClaims(tokenString)
	if err != nil {
		return "", ErrUnprocessableToken
	}
	if claims.Subject == "" {
		return "", ErrUnprocessableToken
	}
	return claims.Subject, nil
}

// IssueResetPasswordToken mints a short-lived token binding the email to
// the requested new password
func (a *Authenticator) IssueResetPasswordToken(email, newPassword string) (string, error) {
	return a.codec.MintResetToken(email, newPassword)
}

// ResolveResetPasswordToken returns the email and new password carried by
// the token. A missing subject or password claim is an
// ErrUnprocessableToken.
func (a *Authenticator) ResolveResetPasswordToken(tokenString string) (string, string, error) {
	claims, err := a.codec.ParseResetClaims(tokenString)
	if err != nil {
		return "", "", ErrUnprocessableToken
	}
	if claims.Subject == "" || claims.Password == "" {
		return "", "", ErrUnprocessableToken
	}
	return claims.Subject, claims.Password, nil
}
