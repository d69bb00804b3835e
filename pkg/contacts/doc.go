// Package contacts implements the owner-scoped address book: CRUD over the
// contacts table, name and email search, and upcoming-birthday queries.
//
// Every store method takes the owner's user ID and scopes its SQL to it, so
// one account can never read or mutate another account's contacts. The
// BirthdayJob runs on a daily cron schedule and mails owners a greeting
// digest for contacts whose birthday falls on the current day.
package contacts
