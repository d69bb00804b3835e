package contacts

import (
	"context"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

const (
	// DefaultPageSize bounds unpaginated list requests
	DefaultPageSize = 50
	// MaxPageSize caps caller-supplied limits
	MaxPageSize = 200
	// DefaultBirthdayWindowDays is the lookahead for upcoming birthdays
	DefaultBirthdayWindowDays = 7
)

// Service fronts the store with paging bounds and metrics
type Service struct {
	store   *Store
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService wires the contacts service together
func NewService(store *Store, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Create inserts a contact for the owner
func (s *Service) Create(ctx context.Context, ownerID int64, in Input) (*Contact, error) {
	contact, err := s.store.Create(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"owner_id":   ownerID,
		"contact_id": contact.ID,
	}).Debug("contact created")

	return contact, nil
}

// Get returns the owner's contact
func (s *Service) Get(ctx context.Context, ownerID, contactID int64) (*Contact, error) {
	return s.store.Get(ctx, ownerID, contactID)
}

// List returns a page of the owner's contacts, optionally filtered
func (s *Service) List(ctx context.Context, ownerID int64, filter SearchFilter, limit, offset int) ([]*Contact, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.List(ctx, ownerID, filter, limit, offset)
}

// Update replaces the owner's contact
func (s *Service) Update(ctx context.Context, ownerID, contactID int64, in Input) (*Contact, error) {
	return s.store.Update(ctx, ownerID, contactID, in)
}

// Delete removes the owner's contact
func (s *Service) Delete(ctx context.Context, ownerID, contactID int64) error {
	if err := s.store.Delete(ctx, ownerID, contactID); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"owner_id":   ownerID,
		"contact_id": contactID,
	}).Debug("contact deleted")

	return nil
}

// UpcomingBirthdays returns the owner's contacts with birthdays in the
// next days; days <= 0 uses the default window
func (s *Service) UpcomingBirthdays(ctx context.Context, ownerID int64, days int) ([]*Contact, error) {
	if days <= 0 {
		days = DefaultBirthdayWindowDays
	}
	return s.store.UpcomingBirthdays(ctx, ownerID, days)
}

// RefreshMetrics updates the stored-contacts gauge
func (s *Service) RefreshMetrics(ctx context.Context) {
	total, err := s.store.Count(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to refresh contact metrics")
		return
	}
	s.metrics.ContactsTotal.Set(float64(total))
}
