package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LevelInfo)
	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Error("failed: %s", "boom")

	out := ansiColorStripper.ReplaceAllString(buf.String(), "")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO ] shown 2")
	assert.Contains(t, out, "[ERROR] failed: boom")
}

func TestConsoleLoggerPrefixAndMetadata(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LevelTrace).WithPrefix("[tizen]").WithPrefix("[remote]").With(map[string]interface{}{"host": "10.0.0.2"})
	log.Trace("connecting")

	out := ansiColorStripper.ReplaceAllString(buf.String(), "")
	assert.Contains(t, out, "[tizen] [remote] connecting")
	assert.Contains(t, out, `{"host":"10.0.0.2"}`)
}

func TestConsoleLoggerPrefixNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LevelInfo).WithPrefix("[tizen]").WithPrefix("[tizen]")
	log.Info("once")
	assert.Equal(t, 1, strings.Count(buf.String(), "[tizen]"))
}

func TestConsoleLoggerSink(t *testing.T) {
	var out, sink bytes.Buffer
	log := NewWriterLogger(&out, LevelError)
	log.SetSink(&sink, LevelDebug)
	log.Debug("debug to sink only")

	assert.Empty(t, out.String())
	assert.Contains(t, sink.String(), "debug to sink only")
	assert.NotContains(t, sink.String(), "\x1b[")
}

func TestConsoleLoggerStack(t *testing.T) {
	var buf bytes.Buffer
	child := NewTestLogger()
	log := NewWriterLogger(&buf, LevelInfo).Stack(child)
	log.Warn("careful")

	entries := child.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "WARNING", entries[0].Severity)
	assert.Equal(t, "careful", entries[0].Message)
}
