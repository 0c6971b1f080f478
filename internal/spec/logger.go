package spec

import "log/slog"

// Logger is the minimal structured logging interface used by the loader and
// probe. Attrs are alternating key/value pairs, following the log/slog
// convention, so any slog-compatible logger adapts trivially.
type Logger interface {
	Debug(msg string, attrs ...any)
	Info(msg string, attrs ...any)
	Warn(msg string, attrs ...any)
	Error(msg string, attrs ...any)
}

// NewSlogAdapter wraps a *slog.Logger as a Logger.
func NewSlogAdapter(l *slog.Logger) Logger {
	return &slogAdapter{l: l}
}

type slogAdapter struct{ l *slog.Logger }

func (a *slogAdapter) Debug(msg string, attrs ...any) { a.l.Debug(msg, attrs...) }
func (a *slogAdapter) Info(msg string, attrs ...any)  { a.l.Info(msg, attrs...) }
func (a *slogAdapter) Warn(msg string, attrs ...any)  { a.l.Warn(msg, attrs...) }
func (a *slogAdapter) Error(msg string, attrs ...any) { a.l.Error(msg, attrs...) }

// NopLogger discards everything. It is the default when no logger is set.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
