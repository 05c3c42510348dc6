// Package logging provides the structured JSON logger used for the REST
// façade's access log. The daemon's component log goes through
// core.Logger; this package covers the machine-readable side, one JSON
// object per line, with request fields attached.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to its LogLevel. It accepts the legacy
// logrus-style names the --log-level flag has always taken, so the same
// flag value drives both the component log and the access log.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "trace", "debug":
		return DebugLevel, nil
	case "info", "notice":
		return InfoLevel, nil
	case "warning", "warn":
		return WarnLevel, nil
	case "error", "fatal", "panic", "critical":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// Entry is one emitted log line.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// StructuredLogger emits leveled, field-carrying log lines, JSON by
// default. WithField/WithFields return child loggers sharing the parent's
// sink and level; the field maps are copied, so a child never mutates its
// parent.
type StructuredLogger struct {
	mu         sync.RWMutex
	level      LogLevel
	output     io.Writer
	fields     map[string]any
	jsonFormat bool
}

// NewStructuredLogger returns a JSON logger at InfoLevel writing to stdout.
func NewStructuredLogger() *StructuredLogger {
	return &StructuredLogger{
		level:      InfoLevel,
		output:     os.Stdout,
		fields:     map[string]any{},
		jsonFormat: true,
	}
}

// SetLevel sets the minimum level that will be emitted.
func (l *StructuredLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput redirects emitted entries to w.
func (l *StructuredLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// SetJSONFormat switches between JSON lines and a plain-text rendering.
func (l *StructuredLogger) SetJSONFormat(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jsonFormat = enabled
}

// WithField returns a child logger carrying the parent's fields plus one.
func (l *StructuredLogger) WithField(key string, value any) *StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a child logger carrying the parent's fields plus the
// given ones.
func (l *StructuredLogger) WithFields(fields map[string]any) *StructuredLogger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := make(map[string]any, len(l.fields)+len(fields))
	maps.Copy(merged, l.fields)
	maps.Copy(merged, fields)

	return &StructuredLogger{
		level:      l.level,
		output:     l.output,
		fields:     merged,
		jsonFormat: l.jsonFormat,
	}
}

func (l *StructuredLogger) emit(level LogLevel, message string, fields map[string]any) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.level {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   message,
	}
	if len(l.fields)+len(fields) > 0 {
		entry.Fields = make(map[string]any, len(l.fields)+len(fields))
		maps.Copy(entry.Fields, l.fields)
		maps.Copy(entry.Fields, fields)
	}

	if l.jsonFormat {
		_ = json.NewEncoder(l.output).Encode(entry)
		return
	}

	fmt.Fprintf(l.output, "%s [%s] %s", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message)
	if len(entry.Fields) > 0 {
		fmt.Fprintf(l.output, " %v", entry.Fields)
	}
	fmt.Fprintln(l.output)
}

// Debug logs message at DebugLevel.
func (l *StructuredLogger) Debug(message string) { l.emit(DebugLevel, message, nil) }

// Debugf logs a formatted message at DebugLevel.
func (l *StructuredLogger) Debugf(format string, args ...any) {
	l.emit(DebugLevel, fmt.Sprintf(format, args...), nil)
}

// Info logs message at InfoLevel.
func (l *StructuredLogger) Info(message string) { l.emit(InfoLevel, message, nil) }

// Infof logs a formatted message at InfoLevel.
func (l *StructuredLogger) Infof(format string, args ...any) {
	l.emit(InfoLevel, fmt.Sprintf(format, args...), nil)
}

// InfoWithFields logs message at InfoLevel with per-entry fields.
func (l *StructuredLogger) InfoWithFields(message string, fields map[string]any) {
	l.emit(InfoLevel, message, fields)
}

// Warn logs message at WarnLevel.
func (l *StructuredLogger) Warn(message string) { l.emit(WarnLevel, message, nil) }

// Warnf logs a formatted message at WarnLevel.
func (l *StructuredLogger) Warnf(format string, args ...any) {
	l.emit(WarnLevel, fmt.Sprintf(format, args...), nil)
}

// WarnWithFields logs message at WarnLevel with per-entry fields.
func (l *StructuredLogger) WarnWithFields(message string, fields map[string]any) {
	l.emit(WarnLevel, message, fields)
}

// Error logs message at ErrorLevel.
func (l *StructuredLogger) Error(message string) { l.emit(ErrorLevel, message, nil) }

// Errorf logs a formatted message at ErrorLevel.
func (l *StructuredLogger) Errorf(format string, args ...any) {
	l.emit(ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// ErrorWithFields logs message at ErrorLevel with per-entry fields.
func (l *StructuredLogger) ErrorWithFields(message string, fields map[string]any) {
	l.emit(ErrorLevel, message, fields)
}
