// Package test provides a recording core.Logger for asserting on log
// output in component tests.
package test

import (
	"fmt"
	"strings"
	"sync"
)

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
}

// RecordingLogger implements core.Logger, capturing every call for later
// inspection. Safe for concurrent use; the dispatcher logs from multiple
// goroutines.
type RecordingLogger struct {
	mu      sync.RWMutex
	records []LogEntry
}

// NewRecordingLogger returns an empty recorder.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, LogEntry{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *RecordingLogger) Criticalf(format string, args ...any) { l.record("CRITICAL", format, args) }
func (l *RecordingLogger) Debugf(format string, args ...any)    { l.record("DEBUG", format, args) }
func (l *RecordingLogger) Errorf(format string, args ...any)    { l.record("ERROR", format, args) }
func (l *RecordingLogger) Noticef(format string, args ...any)   { l.record("NOTICE", format, args) }
func (l *RecordingLogger) Warningf(format string, args ...any)  { l.record("WARNING", format, args) }

// Entries returns a copy of every captured entry.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LogEntry, len(l.records))
	copy(out, l.records)
	return out
}

// HasMessage reports whether any entry's message contains substr.
func (l *RecordingLogger) HasMessage(substr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.records {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// HasError reports whether an ERROR entry's message contains substr.
func (l *RecordingLogger) HasError(substr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.records {
		if e.Level == "ERROR" && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of ERROR entries.
func (l *RecordingLogger) ErrorCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.records {
		if e.Level == "ERROR" {
			n++
		}
	}
	return n
}

// Clear drops all captured entries.
func (l *RecordingLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = l.records[:0]
}
