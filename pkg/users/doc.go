// Package users provides the PostgreSQL-backed user store and the account
// service built on top of it.
//
// The Store owns all SQL against the users table and maps lib/pq unique
// violations to ErrAlreadyExists. The Service layers registration, email
// confirmation, password reset and avatar updates over the store, hashing
// credentials and invalidating cached identity snapshots on every mutation
// so stale role or verification state never outlives a change.
//
// The Directory adapter exposes the store to the authentication core
// without the service's write paths.
package users
