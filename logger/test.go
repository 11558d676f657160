package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
}

// String returns the formatted message of the entry
func (e TestLogEntry) String() string {
	return fmt.Sprintf(e.Message, e.Arguments...)
}

type testRecorder struct {
	mu      sync.Mutex
	entries []TestLogEntry
}

// TestLogger records every entry in memory. Loggers derived with With,
// WithPrefix or Stack share the same recorder, so it is safe to hand a
// TestLogger to code that logs from several goroutines.
type TestLogger struct {
	metadata map[string]interface{}
	rec      *testRecorder
	child    Logger
}

var _ Logger = (*TestLogger)(nil)

// WithPrefix will return a new logger with a prefix prepended to the message
func (c *TestLogger) WithPrefix(prefix string) Logger {
	return c
}

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	child := c.child
	if child != nil {
		child = child.With(metadata)
	}
	return &TestLogger{metadata: kv, rec: c.rec, child: child}
}

func (c *TestLogger) log(level string, msg string, args ...interface{}) {
	c.rec.mu.Lock()
	c.rec.entries = append(c.rec.entries, TestLogEntry{level, msg, args})
	c.rec.mu.Unlock()
}

// Entries returns a copy of the recorded entries
func (c *TestLogger) Entries() []TestLogEntry {
	c.rec.mu.Lock()
	defer c.rec.mu.Unlock()
	out := make([]TestLogEntry, len(c.rec.entries))
	copy(out, c.rec.entries)
	return out
}

// Contains returns true if a recorded entry with severity has a formatted message containing substr
func (c *TestLogger) Contains(severity, substr string) bool {
	for _, e := range c.Entries() {
		if e.Severity == severity && strings.Contains(e.String(), substr) {
			return true
		}
	}
	return false
}

func (c *TestLogger) Trace(msg string, args ...interface{}) {
	c.log("TRACE", msg, args...)
	if c.child != nil {
		c.child.Trace(msg, args...)
	}
}

func (c *TestLogger) Debug(msg string, args ...interface{}) {
	c.log("DEBUG", msg, args...)
	if c.child != nil {
		c.child.Debug(msg, args...)
	}
}

func (c *TestLogger) Info(msg string, args ...interface{}) {
	c.log("INFO", msg, args...)
	if c.child != nil {
		c.child.Info(msg, args...)
	}
}

func (c *TestLogger) Warn(msg string, args ...interface{}) {
	c.log("WARNING", msg, args...)
	if c.child != nil {
		c.child.Warn(msg, args...)
	}
}

func (c *TestLogger) Error(msg string, args ...interface{}) {
	c.log("ERROR", msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
}

func (c *TestLogger) Fatal(msg string, args ...interface{}) {
	c.log("FATAL", msg, args...)
	if c.child != nil {
		c.child.Fatal(msg, args...)
	}
	os.Exit(1)
}

func (c *TestLogger) Stack(next Logger) Logger {
	return &TestLogger{metadata: c.metadata, rec: c.rec, child: next}
}

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	return &TestLogger{rec: &testRecorder{}}
}
