package logging

import "log/slog"

// EnableTrace turns on per-mutation debug lines (settings writes and
// notifications). Off by default to keep debug logs readable.
var EnableTrace = false

// Trace logs a message at DEBUG level, but only if EnableTrace is true.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if EnableTrace {
		logger.Debug(msg, args...)
	}
}
