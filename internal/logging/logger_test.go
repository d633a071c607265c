package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerDefaultsToStderr(t *testing.T) {
	logger := NewLogger(nil)
	if logger == nil {
		t.Fatal("NewLogger(nil) returned nil")
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("expected no output below configured level, got: %s", buf.String())
	}

	logger.Warn("warning message")
	if !strings.Contains(buf.String(), "warning message") {
		t.Errorf("expected warning message, got: %s", buf.String())
	}
}

func TestLoggerFormatsKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Info("block terminated", "name", "sink", "kind", "term_eof_reached")
	output := buf.String()
	if !strings.Contains(output, "name=sink") {
		t.Errorf("expected name=sink in output, got: %s", output)
	}
	if !strings.Contains(output, "kind=term_eof_reached") {
		t.Errorf("expected kind=term_eof_reached in output, got: %s", output)
	}
}

func TestLoggerfVariants(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Debugf("migrated block %q from worker %d to worker %d", "gen", 0, 1)
	if !strings.Contains(buf.String(), `migrated block "gen" from worker 0 to worker 1`) {
		t.Errorf("unexpected Debugf output: %s", buf.String())
	}

	buf.Reset()
	logger.Errorf("flow graph stopped: %v", "boom")
	if !strings.Contains(buf.String(), "flow graph stopped: boom") {
		t.Errorf("unexpected Errorf output: %s", buf.String())
	}
}

func TestDefaultAndSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Info("flow graph started", "blocks", 3)
	if !strings.Contains(buf.String(), "flow graph started") {
		t.Errorf("expected message via package-level Info, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "blocks=3") {
		t.Errorf("expected blocks=3 in output, got: %s", buf.String())
	}
}
