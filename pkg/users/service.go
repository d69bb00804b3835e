package users

import (
	"context"
	"fmt"

	"github.com/rolodexhq/rolodex/pkg/auth"
	"github.com/rolodexhq/rolodex/pkg/observability"
)

// Service layers account workflows over the store. Every mutation
// invalidates the cached identity snapshot for the affected account.
type Service struct {
	store   *Store
	cache   *auth.IdentityCache
	hasher  *auth.PasswordHasher
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService wires the account service together
func NewService(store *Store, cache *auth.IdentityCache, hasher *auth.PasswordHasher, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		hasher:  hasher,
		logger:  logger,
		metrics: metrics,
	}
}

// Register creates an unverified account. A taken username or email yields
// ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.Create(ctx, username, email, hash)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"username": user.Username,
		"user_id":  user.ID,
	}).Info("account created")

	return user, nil
}

// ConfirmEmail marks the account owning the email as verified. The bool
// reports whether the account was already verified; ErrNotFound means no
// such account.
func (s *Service) ConfirmEmail(ctx context.Context, email string) (bool, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrNotFound
	}
	if user.Verified {
		return true, nil
	}

	if _, err := s.store.ConfirmEmail(ctx, email); err != nil {
		return false, err
	}
	s.cache.Delete(ctx, user.Username)

	s.logger.WithField("username", user.Username).Info("email confirmed")
	return false, nil
}

// ResetPassword replaces the password for the account owning the email
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.UpdatePassword(ctx, email, hash)
	if err != nil {
		return err
	}
	s.cache.Delete(ctx, user.Username)

	s.logger.WithField("username", user.Username).Info("password reset")
	return nil
}

// UpdateAvatar replaces the avatar URL for an account
func (s *Service) UpdateAvatar(ctx context.Context, username, avatarURL string) (*User, error) {
	user, err := s.store.UpdateAvatar(ctx, username, avatarURL)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, username)

	s.logger.WithField("username", username).Info("avatar updated")
	return user, nil
}

// FindByUsername returns the full account row, or ErrNotFound
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// FindByEmail returns the full account row, or (nil, nil) when absent so
// callers can keep account existence out of their responses
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.FindByEmail(ctx, email)
}

// RefreshMetrics updates the registered-users gauge
func (s *Service) RefreshMetrics(ctx context.Context) {
	total, err := s.store.Count(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to refresh user metrics")
		return
	}
	s.metrics.UsersTotal.Set(float64(total))
}
