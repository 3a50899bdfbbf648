package app

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger interface for app layer
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Level represents a log severity threshold
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts a string into a Level, defaulting to info
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

// stderrLogger writes leveled lines to an io.Writer, dropping entries
// below the configured threshold
type stderrLogger struct {
	output io.Writer
	min    Level
}

// NewLogger creates a logger writing to stderr with the given threshold
func NewLogger(min Level) Logger {
	return &stderrLogger{output: os.Stderr, min: min}
}

// NewLoggerWithWriter creates a logger with a custom writer (for tests)
func NewLoggerWithWriter(w io.Writer, min Level) Logger {
	return &stderrLogger{output: w, min: min}
}

func (l *stderrLogger) log(level Level, tag, format string, args ...interface{}) {
	if level < l.min {
		return
	}
	fmt.Fprintf(l.output, tag+": "+format+"\n", args...)
}

func (l *stderrLogger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, "DEBUG", format, args...)
}

func (l *stderrLogger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, "INFO", format, args...)
}

func (l *stderrLogger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, "WARN", format, args...)
}

func (l *stderrLogger) Error(format string, args ...interface{}) {
	l.log(LevelError, "ERROR", format, args...)
}

// globalLogger is the logger instance used by app layer
var globalLogger Logger = &stderrLogger{output: os.Stderr, min: LevelInfo}

// SetLogger sets the global logger for app layer
func SetLogger(logger Logger) {
	if logger != nil {
		globalLogger = logger
	}
}

// GetLogger returns the current logger
func GetLogger() Logger {
	return globalLogger
}
