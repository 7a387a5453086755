package core

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

// LogLevel controls which messages a StdLogger emits
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// StdLogger provides a basic structured logger implementation.
// Output format: [LEVEL] message key=value key=value
type StdLogger struct {
	level LogLevel
	out   *log.Logger
}

// NewLogger creates a logger at the given level ("DEBUG", "INFO", "WARN", "ERROR").
// Unknown levels default to INFO.
func NewLogger(level string) *StdLogger {
	l := &StdLogger{
		level: InfoLevel,
		out:   log.New(os.Stderr, "", log.LstdFlags),
	}
	l.SetLevel(level)
	return l
}

// SetLevel sets the logging level
func (l *StdLogger) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.level = DebugLevel
	case "INFO":
		l.level = InfoLevel
	case "WARN", "WARNING":
		l.level = WarnLevel
	case "ERROR":
		l.level = ErrorLevel
	}
}

// Debug logs a debug message
func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	if l.level <= DebugLevel {
		l.log("DEBUG", msg, fields)
	}
}

// Info logs an info message
func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	if l.level <= InfoLevel {
		l.log("INFO", msg, fields)
	}
}

// Warn logs a warning message
func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	if l.level <= WarnLevel {
		l.log("WARN", msg, fields)
	}
}

// Error logs an error message
func (l *StdLogger) Error(msg string, fields map[string]interface{}) {
	if l.level <= ErrorLevel {
		l.log("ERROR", msg, fields)
	}
}

func (l *StdLogger) log(level, msg string, fields map[string]interface{}) {
	parts := make([]string, 0, len(fields)+2)
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)

	// Sorted so log lines are stable for the same call site
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}

	l.out.Println(strings.Join(parts, " "))
}

// GetLogLevel gets the current log level from environment
func GetLogLevel() string {
	level := os.Getenv("KIOSK_LOG_LEVEL")
	if level == "" {
		return "INFO"
	}
	return level
}
