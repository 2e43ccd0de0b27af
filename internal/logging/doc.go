// Package logging builds the slog loggers used across the daemon and CLI.
// It supports console and JSON output, fan-out to multiple destinations
// including log files, and context-derived structured fields (photo ID,
// stage, correlation ID) so pipeline work is traceable per photo.
package logging
