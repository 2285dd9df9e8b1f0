// Package session persists per-conversation history in a local SQLite
// database and hands out identity-stable session handles keyed by chat id.
package session
