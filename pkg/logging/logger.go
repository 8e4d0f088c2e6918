// Package logging provides the small leveled logger shared by the agent loops.
package logging

import (
	"fmt"
	"log"
)

// Logger defines the contract for logging operations with different severity levels.
type Logger interface {
	// Info logs an informational message with optional formatted arguments.
	Info(msg string, args ...interface{})
	// Error logs an error message with optional formatted arguments.
	Error(msg string, args ...interface{})
	// Debug logs a message only when debug output is enabled.
	Debug(msg string, args ...interface{})
}

// StdLogger implements the Logger interface using Go's standard log package.
type StdLogger struct {
	logger *log.Logger
	debug  bool
	tag    string
}

// NewStdLogger creates a new StdLogger wrapping the provided standard logger.
func NewStdLogger(l *log.Logger, debug bool) *StdLogger {
	return &StdLogger{logger: l, debug: debug}
}

// With returns a logger that prefixes every message with tag.
func (l *StdLogger) With(tag string) *StdLogger {
	return &StdLogger{logger: l.logger, debug: l.debug, tag: tag}
}

// Info logs an informational message with INFO prefix.
func (l *StdLogger) Info(msg string, args ...interface{}) {
	l.print("INFO", msg, args...)
}

// Error logs an error message with ERROR prefix.
func (l *StdLogger) Error(msg string, args ...interface{}) {
	l.print("ERROR", msg, args...)
}

// Debug logs a message with DEBUG prefix when debug output is enabled.
func (l *StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.print("DEBUG", msg, args...)
	}
}

func (l *StdLogger) print(level, msg string, args ...interface{}) {
	if l.tag != "" {
		l.logger.Printf("%s: [%s] %s", level, l.tag, fmt.Sprintf(msg, args...))
		return
	}
	l.logger.Printf("%s: %s", level, fmt.Sprintf(msg, args...))
}

// Nop discards everything.
type Nop struct{}

func (Nop) Info(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
func (Nop) Debug(string, ...interface{}) {}

var _ Logger = (*StdLogger)(nil)
var _ Logger = Nop{}
