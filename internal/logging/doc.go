// Package logging assembles structured slog loggers and formatting helpers
// used across shelver components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes standardized field keys so engine code tags log lines
// with queue entry IDs, batch IDs, and metadata source names consistently.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
