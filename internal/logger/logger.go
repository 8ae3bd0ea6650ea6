// Package logger provides the leveled logger used by wpd components.
// Components take a Logger so tests can capture or discard messages.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "WPD_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// stdLogger writes through a *log.Logger with a component prefix.
type stdLogger struct {
	out    *log.Logger
	prefix string
	debug  bool
}

// New creates a logger writing to w. Debug messages are dropped unless debug is true.
func New(w io.Writer, prefix string, debug bool) Logger {
	return &stdLogger{
		out:    log.New(w, "", log.LstdFlags),
		prefix: prefix,
		debug:  debug,
	}
}

// FromEnv creates a stderr logger whose debug level follows WPD_DEBUG.
// The prefix is prepended to all messages (e.g., "[shell]" or "[dispatch]").
func FromEnv(prefix string) Logger {
	return New(os.Stderr, prefix, os.Getenv(DebugEnv) != "")
}

func (l *stdLogger) line(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case l.prefix != "" && level != "":
		l.out.Printf("%s %s: %s", l.prefix, level, msg)
	case l.prefix != "":
		l.out.Printf("%s %s", l.prefix, msg)
	case level != "":
		l.out.Printf("%s: %s", level, msg)
	default:
		l.out.Print(msg)
	}
}

func (l *stdLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		l.line("DEBUG", format, args...)
	}
}

func (l *stdLogger) Info(format string, args ...interface{}) {
	l.line("", format, args...)
}

func (l *stdLogger) Warn(format string, args ...interface{}) {
	l.line("WARN", format, args...)
}

func (l *stdLogger) Error(format string, args ...interface{}) {
	l.line("ERROR", format, args...)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(format string, args ...interface{}) {}
func (noopLogger) Info(format string, args ...interface{})  {}
func (noopLogger) Warn(format string, args ...interface{})  {}
func (noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for test assertions.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{Messages: make([]LogMessage, 0)}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains reports whether any captured message contains substr.
func (l *BufferLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = FromEnv("")
)

// Default returns the package-level default logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level default logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
