// Package config loads application configuration from environment variables.
//
// All variables are prefixed ROLODEX_. Required variables:
//
//	ROLODEX_POSTGRES_URL  PostgreSQL connection string
//	ROLODEX_JWT_SECRET    token signing secret
//
// Everything else has sensible defaults; see LoadConfig. Durations accept
// either Go duration strings ("15m") or plain seconds ("900").
package config
