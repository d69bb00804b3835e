// Package mail renders and delivers transactional email: verification
// links, password reset links and birthday greeting digests.
//
// Messages are rendered from HTML templates. Built-in templates ship with
// the binary; when a template directory is configured its files override
// the built-ins and a filesystem watcher reloads them on change, so copy
// edits never require a restart. A template that fails to parse keeps the
// previous version.
//
// Delivery uses SMTP with optional PLAIN auth. Every send is counted per
// message kind.
package mail
