// Package log is the structured logger shared by the ledger packages. A
// Logger is a *slog.Logger that can hand out per-module children, so the
// sequencer, store, oracle and CLI records are tagged with their origin.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is a slog.Logger whose With and Module return *Logger.
type Logger struct {
	*slog.Logger
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(slog.LevelInfo))
}

// New logs JSON records to stderr.
func New(level slog.Leveler) *Logger {
	return NewJSON(os.Stderr, level)
}

// NewJSON logs one JSON object per record to w.
func NewJSON(w io.Writer, level slog.Leveler) *Logger {
	return NewWithHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewText logs key=value lines to w. The CLI writes these to stderr.
func NewText(w io.Writer, level slog.Leveler) *Logger {
	return NewWithHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewWithHandler wraps an arbitrary handler.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{Logger: slog.New(h)}
}

// Discard drops everything. Tests use it to keep output quiet.
func Discard() *Logger {
	return NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

// SetDefault swaps the logger behind the package-level functions. nil is
// ignored.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// ParseLevel maps a level name onto slog. Matching ignores case and
// surrounding space; anything unrecognised is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "crit":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Module tags every record of the child with module=name.
func (l *Logger) Module(name string) *Logger {
	return l.With("module", name)
}

// With is slog's With, keeping the *Logger type.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
