// Package queue persists identification work and rename history in SQLite.
//
// The store owns two tables: queue_entries, one row per discovered library
// item moving through the status state machine, and history_entries, an
// append-only audit log of applied and attempted renames. Schema changes ship
// as embedded forward-only migrations applied in a single transaction at
// open.
//
// Status transitions are the only mutation path for entries. History rows are
// never updated after insert except for the dismissed flag on error rows.
package queue
