// Package logging provides a small leveled key/value logger.
//
// Output goes to stderr by default because stdout carries the MCP protocol.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger provides structured logging with a fixed prefix and optional
// key/value context inherited by child loggers.
type Logger struct {
	mu     *sync.Mutex
	logger *log.Logger
	level  Level
	fields []interface{}
}

// NewLogger creates a logger writing to stderr with the given prefix.
func NewLogger(prefix string, level Level) *Logger {
	return New(os.Stderr, prefix, level)
}

// New creates a logger writing to w.
func New(w io.Writer, prefix string, level Level) *Logger {
	return &Logger{
		mu:     &sync.Mutex{},
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
		level:  level,
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(io.Discard, "discard", LevelError+1)
}

// With returns a child logger that prepends keysAndValues to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{
		mu:     l.mu,
		logger: l.logger,
		level:  l.level,
		fields: fields,
	}
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, msg, keysAndValues...)
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, msg string, keysAndValues ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	var sb strings.Builder
	writeKV(&sb, l.fields)
	writeKV(&sb, keysAndValues)

	l.mu.Lock()
	l.logger.Printf("[%s] %s%s", level, msg, sb.String())
	l.mu.Unlock()
}

func writeKV(sb *strings.Builder, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(sb, " %v=%v", kv[i], kv[i+1])
	}
}
