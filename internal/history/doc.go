// Package history records completed production runs in SQLite so the
// history view and CLI can list past posts after restarts. The session
// store is deliberately volatile; this is the only durable record.
package history
