package async

import (
	"context"
	"time"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

// Go runs fn in a goroutine with panic recovery and a timeout. The task
// context is detached from the caller's, so finishing a request does not
// cancel the work it spawned.
func Go(timeout time.Duration, taskName string, logger *observability.Logger, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		defer observability.RecoverPanic(logger, taskName)

		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("task", taskName).Warn("background task failed")
		}
	}()
}
