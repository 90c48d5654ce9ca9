// Package log provides a structured event trace for the list coordinator.
//
// It is separate from operational logging (slog): the trace records every
// readiness transition, list decision, subscription change, confirmation
// and observed sync round as a machine-readable event, so a session can be
// replayed and inspected after the fact.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	opts = append(opts, coordinator.WithEventLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For analysis: write to a binary file
//	fl, _ := log.NewFileLogger("/tmp/session.sslog")
//
//	// Both
//	log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys. The
// ssync-log CLI views and summarizes them.
package log
