// Package logger provides a thin factory around log/slog plus helper
// attribute constructors used across the notification core.
//
// New creates a *slog.Logger configured by Option functions (format,
// level, output, static attributes). The attribute helpers in attr.go
// keep attribute naming consistent across packages: every component logs
// notification IDs, attempts, and errors under the same keys.
package logger
