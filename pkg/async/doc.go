// Package async wraps background work with panic recovery, deadlines and
// structured logging.
//
// Handlers use Go for fire-and-forget tasks such as transactional email so
// a slow SMTP server never holds a response open, and a panicking task
// never takes the process down. Tasks receive their own context detached
// from the request, bounded by the given timeout.
package async
