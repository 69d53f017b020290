package reactor

import (
	"log/slog"
)

// Logger is the logging interface the runtime uses for phase
// transitions, port bindings, the assembled dependency graph's size,
// missed deadlines, and failed reactions or observers. Implementations receive a message and variadic key-value
// pairs, the same shape used by slog, logrus, and zap, so any of those
// can back this interface directly.
type Logger interface {
	// Info logs a normal runtime event: phase transitions, module-level
	// startup/shutdown milestones.
	Info(msg string, args ...any)

	// Error logs a condition that prevented an operation from completing.
	Error(msg string, args ...any)

	// Warn logs a recoverable anomaly: a missed deadline, a full job
	// queue, an observer callback that failed.
	Warn(msg string, args ...any)

	// Debug logs fine-grained diagnostic detail: individual binding
	// declarations, dependency-edge discovery, per-instant dispatch.
	Debug(msg string, args ...any)
}

// slogLogger adapts the standard library's structured logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an *slog.Logger as a Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

// NewDefaultLogger returns a Logger backed by slog.Default().
func NewDefaultLogger() Logger {
	return NewSlogLogger(slog.Default())
}

func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }

// noopLogger discards everything.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
