// Package snapshot persists assembled policies in a SQLite store so later
// runs can diff a freshly synthesized policy against what was produced
// before. Snapshots are immutable once saved; retention is handled by a
// pruner that deletes by age and by count, optionally on a cron schedule.
package snapshot
