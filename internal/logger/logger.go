// Package logger provides leveled logging for metasync.
// Messages are printed with a "[LEVEL] " prefix, one per line. Components
// receive a Logger rather than writing to a global, so tests can capture
// or silence output per instance.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Level is a logging severity.
type Level int

// Severities in increasing order.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the prefix name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger is the logging surface used by every component.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Writer logs to an io.Writer. It is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

var _ Logger = (*Writer)(nil)

// New creates a Writer that prints messages at or above level.
func New(out io.Writer, level Level) *Writer {
	return &Writer{out: out, level: level}
}

// SetLevel changes the minimum level.
func (w *Writer) SetLevel(level Level) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.level = level
}

// Enabled reports whether messages at level are printed.
func (w *Writer) Enabled(level Level) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return level >= w.level
}

// Debug prints a debug message.
func (w *Writer) Debug(format string, args ...any) {
	w.log(LevelDebug, format, args...)
}

// Info prints an informational message.
func (w *Writer) Info(format string, args ...any) {
	w.log(LevelInfo, format, args...)
}

// Warn prints a warning message.
func (w *Writer) Warn(format string, args ...any) {
	w.log(LevelWarn, format, args...)
}

// Error prints an error message.
func (w *Writer) Error(format string, args ...any) {
	w.log(LevelError, format, args...)
}

func (w *Writer) log(level Level, format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if level < w.level {
		return
	}
	fmt.Fprintf(w.out, "["+level.String()+"] "+format+"\n", args...)
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}
