// Package logging builds the process-wide slog logger and provides the
// attribute helpers and context plumbing the rest of the pipeline logs with.
// Two output formats are supported: a compact console format for interactive
// use and JSON for log shipping.
package logging
