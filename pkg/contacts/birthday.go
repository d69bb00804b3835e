package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rolodexhq/rolodex/pkg/observability"
	"github.com/rolodexhq/rolodex/pkg/users"
)

// DefaultBirthdaySchedule runs the greeting scan every morning
const DefaultBirthdaySchedule = "0 8 * * *"

// Greeter delivers a birthday digest to an owner
type Greeter interface {
	SendBirthdayGreeting(ctx context.Context, toEmail, ownerName string, contacts []*Contact) error
}

// BirthdayJob scans every verified account once a day and mails owners a
// digest of contacts whose birthday is today. One owner failing never
// stops the scan.
type BirthdayJob struct {
	owners   *users.Store
	contacts *Store
	greeter  Greeter
	logger   *observability.Logger

	schedule string
	cron     *cron.Cron

	// now is swapped in tests
	now func() time.Time
}

// NewBirthdayJob creates the job; an empty schedule uses the default
func NewBirthdayJob(owners *users.Store, contacts *Store, greeter Greeter, logger *observability.Logger, schedule string) *BirthdayJob {
	if schedule == "" {
		schedule = DefaultBirthdaySchedule
	}
	return &BirthdayJob{
		owners:   owners,
		contacts: contacts,
		greeter:  greeter,
		logger:   logger,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start registers the cron entry and begins scheduling
func (j *BirthdayJob) Start(ctx context.Context) error {
	j.cron = cron.New()

	_, err := j.cron.AddFunc(j.schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		if err := j.Run(runCtx); err != nil {
			j.logger.WithError(err).Error("birthday scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule birthday job: %w", err)
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("birthday job scheduled")
	return nil
}

// Stop halts scheduling and waits for a running scan to finish
func (j *BirthdayJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// Run performs one scan over all verified owners
func (j *BirthdayJob) Run(ctx context.Context) error {
	monthDay := j.now().Format("01-02")

	owners, err := j.owners.ListVerified(ctx)
	if err != nil {
		return fmt.Errorf("failed to list owners: %w", err)
	}

	var sent, failed int
	for _, owner := range owners {
		celebrants, err := j.contacts.BirthdaysOn(ctx, owner.ID, monthDay)
		if err != nil {
			failed++
			j.logger.WithError(err).WithField("owner_id", owner.ID).Warn("birthday lookup failed")
			continue
		}
		if len(celebrants) == 0 {
			continue
		}

		if err := j.greeter.SendBirthdayGreeting(ctx, owner.Email, owner.Username, celebrants); err != nil {
			failed++
			j.logger.WithError(err).WithField("owner_id", owner.ID).Warn("birthday greeting failed")
			continue
		}
		sent++
	}

	j.logger.WithFields(map[string]interface{}{
		"date":   monthDay,
		"owners": len(owners),
		"sent":   sent,
		"failed": failed,
	}).Info("birthday scan finished")

	return nil
}
